// Package auth authenticates requests with a pluggable strategy: signed
// bearer tokens or server-side sessions. Both re-check the caller against
// the live wallet on every request.
package auth

import (
	"context"
	"net/http"
	"strings"

	"figo_wallet/internal/domain"
)

// Strategy authenticates requests and manages the credential it hands out
type Strategy interface {
	// Authenticate resolves the request to a live wallet or returns an
	// Unauthorized AppError.
	Authenticate(r *http.Request) (*domain.Wallet, error)
	// Issue establishes a credential for wallet after a successful login.
	// Token strategies return the token; session strategies return "".
	Issue(w http.ResponseWriter, r *http.Request, wallet *domain.Wallet) (string, error)
	// Revoke ends the credential carried by the request, if the strategy
	// keeps any server-side state.
	Revoke(w http.ResponseWriter, r *http.Request) error
}

// WalletFinder loads the live wallet behind a credential
type WalletFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.Wallet, error)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func notLoggedIn() error {
	return domain.Unauthorized(domain.ReasonInvalid, domain.MsgNotLoggedIn)
}
