package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/store"
	"figo_wallet/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var walletColumns = []string{"id", "company", "email", "password_hash", "role", "balance", "created_at", "updated_at"}

func walletRow(id, company string, balance int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(walletColumns).
		AddRow(id, company, company+"@x.io", "hash", domain.RoleUser, balance, now, now)
}

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewEngine(store.NewWalletStore(gdb, 4), time.Second, testutil.NewLogger()), mock
}

func TestTransferCommitFailure(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("a", "alpha", 500))
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("b", "bravo", 0))
	mock.ExpectQuery("SELECT (.+) FROM `wallets` (.+) FOR UPDATE").WillReturnRows(walletRow("a", "alpha", 500))
	mock.ExpectQuery("SELECT (.+) FROM `wallets` (.+) FOR UPDATE").WillReturnRows(walletRow("b", "bravo", 0))
	mock.ExpectExec("UPDATE `wallets` SET `balance`=balance - ").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `wallets` SET `balance`=balance \\+ ").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `transactions`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("a", "alpha", 300))
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("b", "bravo", 200))
	mock.ExpectCommit().WillReturnError(errors.New("commit: connection lost"))

	res, err := engine.Transfer(context.Background(), store.Lookup{ID: "a"}, "b", 200)

	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrTransactionFailure)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 500, appErr.StatusCode)
	assert.Equal(t, "Error", appErr.Status())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferWriteFailureRollsBack(t *testing.T) {
	engine, mock := newMockEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("a", "alpha", 500))
	mock.ExpectQuery("SELECT (.+) FROM `wallets`").WillReturnRows(walletRow("b", "bravo", 0))
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").WillReturnRows(walletRow("a", "alpha", 500))
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").WillReturnRows(walletRow("b", "bravo", 0))
	mock.ExpectExec("UPDATE `wallets`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `wallets`").WillReturnError(errors.New("lock wait timeout exceeded"))
	mock.ExpectRollback()

	_, err := engine.Transfer(context.Background(), store.Lookup{ID: "a"}, "b", 200)

	require.ErrorIs(t, err, domain.ErrTransactionFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}
