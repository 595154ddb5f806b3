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

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	mr       *miniredis.Miniredis
	sessions *RedisSessionStore
	strategy *SessionStrategy
	wallets  *store.WalletStore
	wallet   *domain.Wallet
	clock    time.Time
}

func newSessionFixture(t *testing.T, opts SessionOptions) *sessionFixture {
	t.Helper()
	wallets, w := newWalletStore(t)
	mr, rdb := testutil.NewTestRedis(t)
	sessions := NewRedisSessionStore(rdb)
	f := &sessionFixture{
		mr:       mr,
		sessions: sessions,
		wallets:  wallets,
		wallet:   w,
		clock:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.strategy = NewSessionStrategy(sessions, wallets, opts, testutil.NewLogger())
	f.strategy.now = func() time.Time { return f.clock }
	return f
}

func defaultOpts() SessionOptions {
	return SessionOptions{
		CookieName:      "figo.sid",
		MaxAge:          time.Hour,
		IdleTTL:         10 * time.Minute,
		AbsoluteTimeout: 24 * time.Hour,
	}
}

// login issues a session and returns its cookie
func (f *sessionFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	token, err := f.strategy.Issue(rec, httptest.NewRequest(http.MethodPost, "/", nil), f.wallet)
	require.NoError(t, err)
	assert.Empty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func (f *sessionFixture) request(c *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		req.AddCookie(c)
	}
	return req
}

func TestSessionLifecycle(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())
	cookie := f.login(t)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, f.mr.Exists(sessionKey(cookie.Value)))

	got, err := f.strategy.Authenticate(f.request(cookie))
	require.NoError(t, err)
	assert.Equal(t, f.wallet.ID, got.ID)

	stored, err := f.mr.Get(sessionKey(cookie.Value))
	require.NoError(t, err)
	assert.NotContains(t, stored, "secret1")
	assert.NotContains(t, stored, f.wallet.PasswordHash)

	rec := httptest.NewRecorder()
	require.NoError(t, f.strategy.Revoke(rec, f.request(cookie)))
	assert.False(t, f.mr.Exists(sessionKey(cookie.Value)))
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	_, err = f.strategy.Authenticate(f.request(cookie))
	requireUnauthorized(t, err, domain.ReasonInvalid, domain.MsgNotLoggedIn)
}

func TestSessionMissingCookie(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())

	_, err := f.strategy.Authenticate(f.request(nil))
	requireUnauthorized(t, err, domain.ReasonInvalid, domain.MsgNotLoggedIn)
}

func TestSessionAbsoluteExpiry(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())
	cookie := f.login(t)

	// Just inside the cookie lifetime minus the margin
	f.clock = f.clock.Add(time.Hour - 101*time.Millisecond)
	_, err := f.strategy.Authenticate(f.request(cookie))
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Millisecond)
	_, err = f.strategy.Authenticate(f.request(cookie))
	requireUnauthorized(t, err, domain.ReasonExpired, MsgSessionExpired)
	assert.False(t, f.mr.Exists(sessionKey(cookie.Value)))
}

func TestSessionAbsoluteTimeoutCapsLifetime(t *testing.T) {
	opts := defaultOpts()
	opts.AbsoluteTimeout = 5 * time.Minute
	f := newSessionFixture(t, opts)
	cookie := f.login(t)

	f.clock = f.clock.Add(5 * time.Minute)
	_, err := f.strategy.Authenticate(f.request(cookie))
	requireUnauthorized(t, err, domain.ReasonExpired, MsgSessionExpired)
}

func TestSessionIdleTTLSlides(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())
	cookie := f.login(t)
	key := sessionKey(cookie.Value)
	assert.Equal(t, 10*time.Minute, f.mr.TTL(key))

	f.mr.FastForward(8 * time.Minute)
	f.clock = f.clock.Add(8 * time.Minute)
	_, err := f.strategy.Authenticate(f.request(cookie))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, f.mr.TTL(key))

	f.mr.FastForward(11 * time.Minute)
	_, err = f.strategy.Authenticate(f.request(cookie))
	requireUnauthorized(t, err, domain.ReasonInvalid, domain.MsgNotLoggedIn)
}

func TestSessionInvalidatedByCredentialChange(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())
	cookie := f.login(t)

	pw := "secret2"
	_, err := f.wallets.Update(context.Background(), store.Lookup{ID: f.wallet.ID}, store.Patch{Password: &pw})
	require.NoError(t, err)

	_, err = f.strategy.Authenticate(f.request(cookie))
	requireUnauthorized(t, err, domain.ReasonInvalid, domain.MsgNotLoggedIn)
	assert.False(t, f.mr.Exists(sessionKey(cookie.Value)))
}

func TestSessionIssueReplacesExisting(t *testing.T) {
	f := newSessionFixture(t, defaultOpts())
	first := f.login(t)

	rec := httptest.NewRecorder()
	_, err := f.strategy.Issue(rec, f.request(first), f.wallet)
	require.NoError(t, err)
	second := rec.Result().Cookies()[0]

	assert.NotEqual(t, first.Value, second.Value)
	assert.False(t, f.mr.Exists(sessionKey(first.Value)))
	assert.True(t, f.mr.Exists(sessionKey(second.Value)))
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	_, rdb := testutil.NewTestRedis(t)
	sessions := NewRedisSessionStore(rdb)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Save(ctx, &Session{ID: "old", ExpiresAt: now.Add(-time.Second)}, time.Hour))
	require.NoError(t, sessions.Save(ctx, &Session{ID: "live", ExpiresAt: now.Add(time.Hour)}, time.Hour))

	removed, err := sessions.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = sessions.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sessions.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	_, rdb := testutil.NewTestRedis(t)
	sessions := NewRedisSessionStore(rdb)
	require.NoError(t, sessions.Save(context.Background(), &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Second)}, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, sessions, 10*time.Millisecond, testutil.NewLogger())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := sessions.Get(context.Background(), "old")
		return err == ErrSessionNotFound
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
