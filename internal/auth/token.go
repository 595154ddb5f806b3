package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStrategy authenticates with HS256 bearer tokens. Tokens carry the
// wallet's credential stamp, so changing the password invalidates them.
type TokenStrategy struct {
	secret  string
	ttl     time.Duration
	wallets WalletFinder
}

// NewTokenStrategy builds a token strategy signing with secret
func NewTokenStrategy(secret string, ttl time.Duration, wallets WalletFinder) *TokenStrategy {
	return &TokenStrategy{secret: secret, ttl: ttl, wallets: wallets}
}

// Authenticate implements Strategy
func (s *TokenStrategy) Authenticate(r *http.Request) (*domain.Wallet, error) {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		return nil, notLoggedIn()
	}
	claims, err := utils.ParseJWT(raw, s.secret)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, domain.Unauthorized(domain.ReasonExpired, domain.MsgTokenExpired)
	}
	if err != nil {
		return nil, domain.Unauthorized(domain.ReasonInvalid, domain.MsgTokenInvalid)
	}

	wallet, err := s.wallets.FindByEmail(r.Context(), claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Unauthorized(domain.ReasonInvalid, domain.MsgTokenInvalid)
	} else if err != nil {
		return nil, fmt.Errorf("load token wallet: %w", err)
	}
	if wallet.ID != claims.WalletID || wallet.CredentialStamp() != claims.Stamp {
		return nil, domain.Unauthorized(domain.ReasonInvalid, domain.MsgTokenInvalid)
	}
	return wallet, nil
}

// Issue implements Strategy and also echoes the token in the response header
func (s *TokenStrategy) Issue(w http.ResponseWriter, _ *http.Request, wallet *domain.Wallet) (string, error) {
	token, err := utils.GenerateJWT(wallet.ID, wallet.Email, wallet.CredentialStamp(), s.secret, s.ttl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	w.Header().Set("Authorization", "Bearer "+token)
	return token, nil
}

// Revoke implements Strategy. Tokens are stateless and simply expire.
func (s *TokenStrategy) Revoke(http.ResponseWriter, *http.Request) error {
	return nil
}
