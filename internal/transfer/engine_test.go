package transfer

import (
	"context"
	"sync"
	"testing"
	"time"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/store"
	"figo_wallet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store  *store.WalletStore
	engine *Engine
	a, b   *domain.Wallet
}

func setup(t *testing.T, balanceA, balanceB int64) *fixture {
	t.Helper()
	s := store.NewWalletStore(testutil.NewTestDB(t), bcrypt.MinCost)
	ctx := context.Background()
	a, err := s.Create(ctx, store.NewWallet{Company: "alpha", Email: "a@x.io", Password: "secret1", Balance: balanceA})
	require.NoError(t, err)
	b, err := s.Create(ctx, store.NewWallet{Company: "bravo", Email: "b@x.io", Password: "secret1", Balance: balanceB})
	require.NoError(t, err)
	return &fixture{store: s, engine: NewEngine(s, 5*time.Second, testutil.NewLogger()), a: a, b: b}
}

func (f *fixture) balances(t *testing.T) (int64, int64) {
	t.Helper()
	a, err := f.store.FindByID(context.Background(), f.a.ID)
	require.NoError(t, err)
	b, err := f.store.FindByID(context.Background(), f.b.ID)
	require.NoError(t, err)
	return a.Balance, b.Balance
}

func TestTransferMovesFunds(t *testing.T) {
	f := setup(t, 500, 0)

	res, err := f.engine.Transfer(context.Background(), store.Lookup{ID: f.a.ID, Company: "alpha"}, f.b.ID, 200)
	require.NoError(t, err)

	assert.EqualValues(t, 300, res.Source.Balance)
	assert.EqualValues(t, 200, res.Destination.Balance)
	assert.Equal(t, domain.TxTransfer, res.Transaction.Type)
	require.NotNil(t, res.Transaction.FromWalletID)
	assert.Equal(t, f.a.ID, *res.Transaction.FromWalletID)

	a, b := f.balances(t)
	assert.EqualValues(t, 300, a)
	assert.EqualValues(t, 200, b)

	// Over-spend after the first transfer fails and changes nothing
	_, err = f.engine.Transfer(context.Background(), store.Lookup{ID: f.a.ID}, f.b.ID, 400)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	a, b = f.balances(t)
	assert.EqualValues(t, 300, a)
	assert.EqualValues(t, 200, b)

	txs, total, err := f.store.ListTransactions(context.Background(), store.TxQuery{WalletID: f.a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, txs, 1)
}

func TestTransferRejections(t *testing.T) {
	tests := []struct {
		name      string
		source    func(f *fixture) store.Lookup
		recipient func(f *fixture) string
		amount    int64
		want      error
		message   string
	}{
		{
			name:      "missing source",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: "nope"} },
			recipient: func(f *fixture) string { return "also-nope" },
			amount:    100,
			want:      domain.ErrInvalidAccount,
			message:   domain.MsgSourceMissing,
		},
		{
			name:      "source outside caller scope",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID, Company: "bravo"} },
			recipient: func(f *fixture) string { return f.b.ID },
			amount:    100,
			want:      domain.ErrInvalidAccount,
			message:   domain.MsgSourceMissing,
		},
		{
			name:      "missing recipient",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID} },
			recipient: func(f *fixture) string { return "nope" },
			amount:    100,
			want:      domain.ErrInvalidAccount,
			message:   domain.MsgRecipientMissing,
		},
		{
			name:      "self transfer with funds",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID} },
			recipient: func(f *fixture) string { return f.a.ID },
			amount:    100,
			want:      domain.ErrSelfTransfer,
			message:   domain.MsgSelfTransfer,
		},
		{
			name:      "self transfer without funds",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID} },
			recipient: func(f *fixture) string { return f.a.ID },
			amount:    10_000,
			want:      domain.ErrSelfTransfer,
			message:   domain.MsgSelfTransfer,
		},
		{
			name:      "insufficient balance",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID} },
			recipient: func(f *fixture) string { return f.b.ID },
			amount:    501,
			want:      domain.ErrInsufficientBalance,
			message:   domain.MsgInsufficientBalance,
		},
		{
			name:      "non positive amount",
			source:    func(f *fixture) store.Lookup { return store.Lookup{ID: f.a.ID} },
			recipient: func(f *fixture) string { return f.b.ID },
			amount:    0,
			want:      domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, 500, 0)

			_, err := f.engine.Transfer(context.Background(), tt.source(f), tt.recipient(f), tt.amount)

			require.ErrorIs(t, err, tt.want)
			if tt.message != "" {
				appErr, ok := domain.AsAppError(err)
				require.True(t, ok)
				assert.Equal(t, tt.message, appErr.Message)
				assert.Equal(t, 400, appErr.StatusCode)
			}
			a, b := f.balances(t)
			assert.EqualValues(t, 500, a)
			assert.EqualValues(t, 0, b)
		})
	}
}

func TestTransferConservesTotal(t *testing.T) {
	f := setup(t, 1000, 1000)
	ctx := context.Background()
	moves := []struct {
		from, to *domain.Wallet
		amount   int64
	}{
		{f.a, f.b, 300}, {f.b, f.a, 1200}, {f.a, f.b, 5000}, {f.b, f.a, 100}, {f.a, f.b, 1},
	}
	for _, m := range moves {
		_, _ = f.engine.Transfer(ctx, store.Lookup{ID: m.from.ID}, m.to.ID, m.amount)
		a, b := f.balances(t)
		assert.EqualValues(t, 2000, a+b)
		assert.GreaterOrEqual(t, a, int64(0))
		assert.GreaterOrEqual(t, b, int64(0))
	}
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	f := setup(t, 1000, 0)
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Transfer(context.Background(), store.Lookup{ID: f.a.ID}, f.b.ID, 300)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			isKind(err, domain.KindInsufficientBalance) || isKind(err, domain.KindTransactionFailure),
			"unexpected error: %v", err)
	}
	a, b := f.balances(t)
	assert.Equal(t, 3, succeeded)
	assert.EqualValues(t, 100, a)
	assert.EqualValues(t, 900, b)
}

func TestTransferCancelledContext(t *testing.T) {
	f := setup(t, 500, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Transfer(ctx, store.Lookup{ID: f.a.ID}, f.b.ID, 100)

	require.ErrorIs(t, err, domain.ErrTransactionFailure)
	a, b := f.balances(t)
	assert.EqualValues(t, 500, a)
	assert.EqualValues(t, 0, b)
}

func TestDeposit(t *testing.T) {
	f := setup(t, 0, 0)

	res, err := f.engine.Deposit(context.Background(), store.Lookup{ID: f.a.ID}, 250)
	require.NoError(t, err)
	assert.EqualValues(t, 250, res.Wallet.Balance)
	assert.Equal(t, domain.TxDeposit, res.Transaction.Type)
	assert.Nil(t, res.Transaction.FromWalletID)

	_, err = f.engine.Deposit(context.Background(), store.Lookup{ID: "nope"}, 250)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)

	_, err = f.engine.Deposit(context.Background(), store.Lookup{ID: f.a.ID}, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func isKind(err error, kind domain.Kind) bool {
	appErr, ok := domain.AsAppError(err)
	return ok && appErr.Kind == kind
}
