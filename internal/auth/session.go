package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"figo_wallet/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session strategy messages
const (
	MsgSessionExpired = "Session Expired. Please Log In!"
)

// expiryMargin ends a session just before its cookie does
const expiryMargin = 100 * time.Millisecond

// SessionOptions configures a SessionStrategy
type SessionOptions struct {
	CookieName      string
	MaxAge          time.Duration // Cookie lifetime
	IdleTTL         time.Duration // Store TTL, refreshed on each access
	AbsoluteTimeout time.Duration // Hard cap on a session's lifetime
	Secure          bool
}

// SessionStrategy authenticates with an opaque session cookie backed by a
// SessionStore. Sessions hold the credential stamp, never the password.
type SessionStrategy struct {
	store   SessionStore
	wallets WalletFinder
	opts    SessionOptions
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewSessionStrategy builds a session strategy
func NewSessionStrategy(store SessionStore, wallets WalletFinder, opts SessionOptions, log logrus.FieldLogger) *SessionStrategy {
	return &SessionStrategy{store: store, wallets: wallets, opts: opts, log: log, now: time.Now}
}

// lifetime is the absolute lifetime of a new session
func (s *SessionStrategy) lifetime() time.Duration {
	life := s.opts.MaxAge - expiryMargin
	if s.opts.AbsoluteTimeout > 0 && s.opts.AbsoluteTimeout < life {
		life = s.opts.AbsoluteTimeout
	}
	return life
}

// Authenticate implements Strategy
func (s *SessionStrategy) Authenticate(r *http.Request) (*domain.Wallet, error) {
	ctx := r.Context()
	cookie, err := r.Cookie(s.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, notLoggedIn()
	}
	sess, err := s.store.Get(ctx, cookie.Value)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, notLoggedIn()
	} else if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.Expired(now) {
		s.destroy(r, sess.ID)
		return nil, domain.Unauthorized(domain.ReasonExpired, MsgSessionExpired)
	}

	wallet, err := s.wallets.FindByEmail(ctx, sess.Email)
	if errors.Is(err, domain.ErrNotFound) {
		s.destroy(r, sess.ID)
		return nil, notLoggedIn()
	} else if err != nil {
		return nil, fmt.Errorf("load session wallet: %w", err)
	}
	if wallet.ID != sess.WalletID || wallet.CredentialStamp() != sess.Stamp {
		s.destroy(r, sess.ID)
		return nil, notLoggedIn()
	}

	ttl := s.opts.IdleTTL
	if left := sess.ExpiresAt.Sub(now); ttl <= 0 || left < ttl {
		ttl = left
	}
	if err := s.store.Touch(ctx, sess.ID, ttl); err != nil {
		s.log.WithError(err).WithField("session_id", sess.ID).Warn("Session touch failed")
	}
	return wallet, nil
}

// Issue implements Strategy. Any session already on the request is
// replaced with a fresh ID.
func (s *SessionStrategy) Issue(w http.ResponseWriter, r *http.Request, wallet *domain.Wallet) (string, error) {
	if old, err := r.Cookie(s.opts.CookieName); err == nil && old.Value != "" {
		s.destroy(r, old.Value)
	}
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		WalletID:  wallet.ID,
		Email:     wallet.Email,
		Stamp:     wallet.CredentialStamp(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.lifetime()),
	}
	ttl := s.opts.IdleTTL
	if ttl <= 0 || ttl > s.lifetime() {
		ttl = s.lifetime()
	}
	if err := s.store.Save(r.Context(), sess, ttl); err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.opts.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return "", nil
}

// Revoke implements Strategy
func (s *SessionStrategy) Revoke(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(s.opts.CookieName)
	if err == nil && cookie.Value != "" {
		if err := s.store.Destroy(r.Context(), cookie.Value); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionStrategy) destroy(r *http.Request, id string) {
	if err := s.store.Destroy(r.Context(), id); err != nil {
		s.log.WithError(err).WithField("session_id", id).Warn("Session destroy failed")
	}
}
