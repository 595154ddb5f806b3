// Package transfer moves funds between wallets atomically.
package transfer

import (
	"context"
	"errors"
	"time"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/store"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Result is the committed state after a transfer
type Result struct {
	Source      *domain.Wallet
	Destination *domain.Wallet
	Transaction *domain.Transaction
}

// DepositResult is the committed state after a deposit
type DepositResult struct {
	Wallet      *domain.Wallet
	Transaction *domain.Transaction
}

// Engine runs balance movements inside a single database transaction.
// Failures are never retried.
type Engine struct {
	store   *store.WalletStore
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewEngine builds an engine bounding each transaction by timeout
func NewEngine(s *store.WalletStore, timeout time.Duration, log logrus.FieldLogger) *Engine {
	return &Engine{store: s, timeout: timeout, log: log}
}

// Transfer moves amount from the wallet matching source to recipientID.
// Checks run in order: source exists, recipient exists, not the same
// wallet, balance covers amount. The first failure wins and nothing is
// written.
func (e *Engine) Transfer(ctx context.Context, source store.Lookup, recipientID string, amount int64) (*Result, error) {
	if amount <= 0 {
		return nil, domain.Validation("Amount must be greater than zero!")
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var res Result
	err := e.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := e.store.WithTx(tx)

		src, err := s.FindOne(ctx, source)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.InvalidAccount(domain.MsgSourceMissing)
		} else if err != nil {
			return err
		}
		if recipientID == "" {
			return domain.InvalidAccount(domain.MsgRecipientMissing)
		}
		dst, err := s.FindByID(ctx, recipientID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.InvalidAccount(domain.MsgRecipientMissing)
		} else if err != nil {
			return err
		}
		if src.ID == dst.ID {
			return domain.SelfTransfer()
		}

		// Lock in ID order so opposing transfers cannot deadlock
		src, dst, err = lockPair(ctx, s, src.ID, dst.ID)
		if err != nil {
			return err
		}
		if src.Balance < amount {
			return domain.InsufficientBalance()
		}

		if err := s.Debit(ctx, src.ID, amount); err != nil {
			return err
		}
		if err := s.Credit(ctx, dst.ID, amount); err != nil {
			return err
		}
		ledger := &domain.Transaction{
			FromWalletID: &src.ID,
			ToWalletID:   &dst.ID,
			Amount:       amount,
			Type:         domain.TxTransfer,
		}
		if err := s.RecordTransaction(ctx, ledger); err != nil {
			return err
		}

		if res.Source, err = s.FindByID(ctx, src.ID); err != nil {
			return err
		}
		if res.Destination, err = s.FindByID(ctx, dst.ID); err != nil {
			return err
		}
		res.Transaction = ledger
		return nil
	})
	if err != nil {
		return nil, e.fail("Transfer", err, logrus.Fields{
			"from_company": source.Company,
			"from_id":      source.ID,
			"to_id":        recipientID,
			"amount":       amount,
		})
	}

	e.log.WithFields(logrus.Fields{
		"transaction_id": res.Transaction.ID,
		"from_wallet_id": res.Source.ID,
		"to_wallet_id":   res.Destination.ID,
		"amount":         amount,
		"type":           domain.TxTransfer,
	}).Info("Transfer transaction")
	return &res, nil
}

// Deposit credits amount to the wallet matching target
func (e *Engine) Deposit(ctx context.Context, target store.Lookup, amount int64) (*DepositResult, error) {
	if amount <= 0 {
		return nil, domain.Validation("Amount must be greater than zero!")
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var res DepositResult
	err := e.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := e.store.WithTx(tx)
		w, err := s.FindForUpdate(ctx, target)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.InvalidAccount(domain.MsgSourceMissing)
		} else if err != nil {
			return err
		}
		if err := s.Credit(ctx, w.ID, amount); err != nil {
			return err
		}
		ledger := &domain.Transaction{ToWalletID: &w.ID, Amount: amount, Type: domain.TxDeposit}
		if err := s.RecordTransaction(ctx, ledger); err != nil {
			return err
		}
		if res.Wallet, err = s.FindByID(ctx, w.ID); err != nil {
			return err
		}
		res.Transaction = ledger
		return nil
	})
	if err != nil {
		return nil, e.fail("Deposit", err, logrus.Fields{"wallet_id": target.ID, "amount": amount})
	}

	e.log.WithFields(logrus.Fields{
		"transaction_id": res.Transaction.ID,
		"wallet_id":      res.Wallet.ID,
		"amount":         amount,
		"type":           domain.TxDeposit,
	}).Info("Deposit transaction")
	return &res, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// fail passes business rejections through and turns everything else,
// including commit errors and deadlines, into a TransactionFailure.
func (e *Engine) fail(op string, err error, fields logrus.Fields) error {
	if appErr, ok := domain.AsAppError(err); ok && appErr.Kind != domain.KindTransactionFailure {
		e.log.WithFields(fields).WithField("reason", appErr.Kind).Warn(op + " rejected")
		return appErr
	}
	e.log.WithFields(fields).WithError(err).Error(op + " failed")
	return domain.TransactionFailure(err)
}

func lockPair(ctx context.Context, s *store.WalletStore, srcID, dstID string) (*domain.Wallet, *domain.Wallet, error) {
	firstID, secondID := srcID, dstID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.FindForUpdate(ctx, store.Lookup{ID: firstID})
	if err != nil {
		return nil, nil, err
	}
	second, err := s.FindForUpdate(ctx, store.Lookup{ID: secondID})
	if err != nil {
		return nil, nil, err
	}
	if first.ID == srcID {
		return first, second, nil
	}
	return second, first, nil
}
