package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"figo_wallet/internal/domain"

	"gorm.io/gorm"
)

// Pagination defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page and size into their valid ranges
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// TotalPages is the number of pages needed for total rows
func TotalPages(total int64, size int) int {
	return (int(total) + size - 1) / size
}

// ListQuery filters, sorts and paginates wallets
type ListQuery struct {
	Company    string
	Email      string
	MinBalance *int64
	MaxBalance *int64
	Sort       string // comma separated, "-" prefix for descending
	Page       int
	PageSize   int
}

var sortableWalletColumns = map[string]bool{
	"company":    true,
	"email":      true,
	"balance":    true,
	"created_at": true,
	"updated_at": true,
}

// sortClause turns "-balance,company" into "balance desc, company asc",
// dropping unknown columns.
func sortClause(raw string) string {
	var parts []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		dir := "asc"
		if strings.HasPrefix(field, "-") {
			dir = "desc"
			field = field[1:]
		}
		if sortableWalletColumns[field] {
			parts = append(parts, field+" "+dir)
		}
	}
	if len(parts) == 0 {
		return "created_at desc"
	}
	return strings.Join(parts, ", ")
}

// List returns one page of wallets and the total matching the filters
func (s *WalletStore) List(ctx context.Context, q ListQuery) ([]domain.Wallet, int64, error) {
	page, size := NormalizePage(q.Page, q.PageSize)
	query := s.db.WithContext(ctx).Model(&domain.Wallet{})
	if q.Company != "" {
		query = query.Where("company = ?", normalize(q.Company))
	}
	if q.Email != "" {
		query = query.Where("email = ?", normalize(q.Email))
	}
	if q.MinBalance != nil {
		query = query.Where("balance >= ?", *q.MinBalance)
	}
	if q.MaxBalance != nil {
		query = query.Where("balance <= ?", *q.MaxBalance)
	}
	query = query.Session(&gorm.Session{}) // Count and Find each get their own statement
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}
	var wallets []domain.Wallet
	if err := query.Order(sortClause(q.Sort)).Offset((page - 1) * size).Limit(size).Find(&wallets).Error; err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, total, nil
}

// TxQuery filters and paginates ledger rows
type TxQuery struct {
	WalletID string // sender or receiver
	Type     string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// RecordTransaction appends a ledger row
func (s *WalletStore) RecordTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// ListTransactions returns one page of ledger rows, newest first
func (s *WalletStore) ListTransactions(ctx context.Context, q TxQuery) ([]domain.Transaction, int64, error) {
	page, size := NormalizePage(q.Page, q.PageSize)
	query := s.db.WithContext(ctx).Model(&domain.Transaction{})
	if q.WalletID != "" {
		query = query.Where("from_wallet_id = ? OR to_wallet_id = ?", q.WalletID, q.WalletID)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", *q.To)
	}
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	var txs []domain.Transaction
	err := query.Order("created_at desc").Offset((page - 1) * size).Limit(size).Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}
