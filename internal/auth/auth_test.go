package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/store"
	"figo_wallet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newWalletStore(t *testing.T) (*store.WalletStore, *domain.Wallet) {
	t.Helper()
	s := store.NewWalletStore(testutil.NewTestDB(t), bcrypt.MinCost)
	w, err := s.Create(context.Background(), store.NewWallet{Company: "acme", Email: "a@acme.io", Password: "secret1"})
	require.NoError(t, err)
	return s, w
}

func requireUnauthorized(t *testing.T, err error, reason, message string) {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 401, appErr.StatusCode)
	assert.Equal(t, reason, appErr.Reason)
	assert.Equal(t, message, appErr.Message)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "abc", bearerToken("BEARER   abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
	assert.Empty(t, bearerToken(""))
}

func TestTokenStrategyRoundTrip(t *testing.T) {
	s, w := newWalletStore(t)
	strategy := NewTokenStrategy("secret", time.Hour, s)

	rec := httptest.NewRecorder()
	token, err := strategy.Issue(rec, httptest.NewRequest(http.MethodPost, "/", nil), w)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, rec.Header().Get("Authorization"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	got, err := strategy.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	require.NoError(t, strategy.Revoke(rec, req))
}

func TestTokenStrategyRejections(t *testing.T) {
	s, w := newWalletStore(t)
	strategy := NewTokenStrategy("secret", time.Hour, s)
	expired := NewTokenStrategy("secret", -time.Minute, s)
	foreign := NewTokenStrategy("other-secret", time.Hour, s)

	issue := func(st *TokenStrategy) string {
		token, err := st.Issue(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), w)
		require.NoError(t, err)
		return token
	}
	authWith := func(header string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, err := strategy.Authenticate(req)
		return err
	}

	requireUnauthorized(t, authWith(""), domain.ReasonInvalid, domain.MsgNotLoggedIn)
	requireUnauthorized(t, authWith("Bearer "+issue(expired)), domain.ReasonExpired, domain.MsgTokenExpired)
	requireUnauthorized(t, authWith("Bearer "+issue(foreign)), domain.ReasonInvalid, domain.MsgTokenInvalid)
	requireUnauthorized(t, authWith("Bearer not.a.token"), domain.ReasonInvalid, domain.MsgTokenInvalid)
}

func TestTokenInvalidatedByPasswordChange(t *testing.T) {
	s, w := newWalletStore(t)
	strategy := NewTokenStrategy("secret", time.Hour, s)
	token, err := strategy.Issue(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil), w)
	require.NoError(t, err)

	pw := "secret2"
	_, err = s.Update(context.Background(), store.Lookup{ID: w.ID}, store.Patch{Password: &pw})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = strategy.Authenticate(req)
	requireUnauthorized(t, err, domain.ReasonInvalid, domain.MsgTokenInvalid)
}

func TestServiceLogin(t *testing.T) {
	s, w := newWalletStore(t)
	svc, err := NewService(s, bcrypt.MinCost, testutil.NewLogger())
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.Login(ctx, "A@acme.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)

	for _, tc := range []struct{ email, password string }{
		{"a@acme.io", "wrong-password"},
		{"nobody@acme.io", "secret1"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		appErr, _ := domain.AsAppError(err)
		assert.Equal(t, domain.MsgInvalidCredentials, appErr.Message)
		assert.Equal(t, 401, appErr.StatusCode)
	}
}

func TestServiceChangeEmail(t *testing.T) {
	s, w := newWalletStore(t)
	svc, err := NewService(s, bcrypt.MinCost, testutil.NewLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ChangeEmail(ctx, w, " A@ACME.io ")
	require.ErrorIs(t, err, domain.ErrValidation)
	appErr, _ := domain.AsAppError(err)
	assert.Equal(t, domain.MsgIdenticalEmail, appErr.Message)

	updated, err := svc.ChangeEmail(ctx, w, "new@acme.io")
	require.NoError(t, err)
	assert.Equal(t, "new@acme.io", updated.Email)
}

func TestServiceChangePassword(t *testing.T) {
	s, w := newWalletStore(t)
	svc, err := NewService(s, bcrypt.MinCost, testutil.NewLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ChangePassword(ctx, w, "wrong", "secret2")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	appErr, _ := domain.AsAppError(err)
	assert.Equal(t, domain.MsgWrongPassword, appErr.Message)

	_, err = svc.ChangePassword(ctx, w, "secret1", "secret2")
	require.NoError(t, err)
	_, err = svc.Login(ctx, w.Email, "secret2")
	require.NoError(t, err)
	_, err = svc.Login(ctx, w.Email, "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
