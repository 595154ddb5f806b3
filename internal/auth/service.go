package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/store"
	"figo_wallet/internal/utils"

	"github.com/sirupsen/logrus"
)

// CredentialStore is the part of the wallet store the service needs
type CredentialStore interface {
	WalletFinder
	Update(ctx context.Context, l store.Lookup, patch store.Patch) (*domain.Wallet, error)
}

// Service verifies and changes wallet credentials
type Service struct {
	wallets   CredentialStore
	dummyHash string
	log       logrus.FieldLogger
}

// NewService builds a credential service. The dummy hash is compared
// against when the email is unknown, so both failures cost the same.
func NewService(wallets CredentialStore, hashCost int, log logrus.FieldLogger) (*Service, error) {
	dummy, err := utils.HashPassword("figo-wallet-dummy-password", hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &Service{wallets: wallets, dummyHash: dummy, log: log}, nil
}

// Login checks an email and password pair
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Wallet, error) {
	wallet, err := s.wallets.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		utils.CheckPassword(s.dummyHash, password)
		return nil, domain.InvalidCredentials(domain.MsgInvalidCredentials)
	} else if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(wallet.PasswordHash, password) {
		s.log.WithField("wallet_id", wallet.ID).Info("Login rejected")
		return nil, domain.InvalidCredentials(domain.MsgInvalidCredentials)
	}
	return wallet, nil
}

// ChangeEmail moves wallet to a new email. The caller must revoke the
// current session afterwards.
func (s *Service) ChangeEmail(ctx context.Context, wallet *domain.Wallet, newEmail string) (*domain.Wallet, error) {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == wallet.Email {
		return nil, domain.Validation(domain.MsgIdenticalEmail)
	}
	updated, err := s.wallets.Update(ctx, store.Lookup{ID: wallet.ID}, store.Patch{Email: &newEmail})
	if err != nil {
		return nil, err
	}
	s.log.WithField("wallet_id", wallet.ID).Info("Email changed")
	return updated, nil
}

// ChangePassword replaces the password after re-checking the current one.
// The caller must revoke the current session afterwards.
func (s *Service) ChangePassword(ctx context.Context, wallet *domain.Wallet, current, next string) (*domain.Wallet, error) {
	if !utils.CheckPassword(wallet.PasswordHash, current) {
		return nil, domain.InvalidCredentials(domain.MsgWrongPassword)
	}
	updated, err := s.wallets.Update(ctx, store.Lookup{ID: wallet.ID}, store.Patch{Password: &next})
	if err != nil {
		return nil, err
	}
	s.log.WithField("wallet_id", wallet.ID).Info("Password changed")
	return updated, nil
}
