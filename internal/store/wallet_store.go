// Package store persists wallets and their ledger with GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"figo_wallet/internal/domain"
	"figo_wallet/internal/utils"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

// Lookup selects a wallet. Every non-empty field must match.
type Lookup struct {
	ID      string
	Company string
	Email   string
}

func (l Lookup) empty() bool {
	return l.ID == "" && l.Company == "" && l.Email == ""
}

// NewWallet is the input of Create
type NewWallet struct {
	Company  string
	Email    string
	Password string
	Role     string
	Balance  int64
}

// Patch lists the fields Update may change; nil fields are left alone
type Patch struct {
	Company  *string
	Email    *string
	Password *string
}

// WalletStore is the credential store
type WalletStore struct {
	db       *gorm.DB
	hashCost int
}

// NewWalletStore builds a store over db hashing passwords at hashCost
func NewWalletStore(db *gorm.DB, hashCost int) *WalletStore {
	return &WalletStore{db: db, hashCost: hashCost}
}

// WithTx returns a store bound to tx
func (s *WalletStore) WithTx(tx *gorm.DB) *WalletStore {
	return &WalletStore{db: tx, hashCost: s.hashCost}
}

// DB exposes the underlying handle, used to open transactions
func (s *WalletStore) DB() *gorm.DB {
	return s.db
}

// Create hashes the password and inserts a new wallet
func (s *WalletStore) Create(ctx context.Context, in NewWallet) (*domain.Wallet, error) {
	hash, err := utils.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	w := &domain.Wallet{
		Company:      normalize(in.Company),
		Email:        normalize(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Balance:      in.Balance,
	}
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, s.mapWriteError(ctx, err, w.Company, w.Email, "")
	}
	return w, nil
}

// FindByKey finds a wallet by company
func (s *WalletStore) FindByKey(ctx context.Context, company string) (*domain.Wallet, error) {
	return s.FindOne(ctx, Lookup{Company: company})
}

// FindByEmail finds a wallet by email
func (s *WalletStore) FindByEmail(ctx context.Context, email string) (*domain.Wallet, error) {
	return s.FindOne(ctx, Lookup{Email: email})
}

// FindByID finds a wallet by ID
func (s *WalletStore) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return s.FindOne(ctx, Lookup{ID: id})
}

// FindOne finds the wallet matching every field of l
func (s *WalletStore) FindOne(ctx context.Context, l Lookup) (*domain.Wallet, error) {
	return s.find(s.db.WithContext(ctx), l)
}

// FindForUpdate reads a wallet and row-locks it for the rest of the
// surrounding transaction. SQLite ignores the locking clause.
func (s *WalletStore) FindForUpdate(ctx context.Context, l Lookup) (*domain.Wallet, error) {
	return s.find(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), l)
}

func (s *WalletStore) find(q *gorm.DB, l Lookup) (*domain.Wallet, error) {
	if l.empty() {
		return nil, domain.ErrNotFound
	}
	q = applyLookup(q, l)
	var w domain.Wallet
	if err := q.Take(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	return &w, nil
}

// Update applies patch to the wallet matching l and returns the fresh row.
// A password in the patch is hashed before it is stored.
func (s *WalletStore) Update(ctx context.Context, l Lookup, patch Patch) (*domain.Wallet, error) {
	w, err := s.FindOne(ctx, l)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if patch.Company != nil {
		changes["company"] = normalize(*patch.Company)
	}
	if patch.Email != nil {
		changes["email"] = normalize(*patch.Email)
	}
	if patch.Password != nil {
		hash, err := utils.HashPassword(*patch.Password, s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		changes["password_hash"] = hash
	}
	if len(changes) == 0 {
		return w, nil
	}
	if err := s.db.WithContext(ctx).Model(w).Updates(changes).Error; err != nil {
		company, _ := changes["company"].(string)
		email, _ := changes["email"].(string)
		return nil, s.mapWriteError(ctx, err, company, email, w.ID)
	}
	return s.FindByID(ctx, w.ID)
}

// Delete removes the wallet matching l
func (s *WalletStore) Delete(ctx context.Context, l Lookup) error {
	w, err := s.FindOne(ctx, l)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&domain.Wallet{}, "id = ?", w.ID).Error; err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// Debit subtracts amount from a wallet only if the balance covers it
func (s *WalletStore) Debit(ctx context.Context, walletID string, amount int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.InsufficientBalance()
	}
	return nil
}

// Credit adds amount to a wallet
func (s *WalletStore) Credit(ctx context.Context, walletID string, amount int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func applyLookup(q *gorm.DB, l Lookup) *gorm.DB {
	if l.ID != "" {
		q = q.Where("id = ?", l.ID)
	}
	if l.Company != "" {
		q = q.Where("company = ?", normalize(l.Company))
	}
	if l.Email != "" {
		q = q.Where("email = ?", normalize(l.Email))
	}
	return q
}

// mapWriteError turns a uniqueness violation into a Conflict naming the
// field that collided.
func (s *WalletStore) mapWriteError(ctx context.Context, err error, company, email, selfID string) error {
	if !isDuplicate(err) {
		return fmt.Errorf("write wallet: %w", err)
	}
	field := "company"
	if email != "" {
		if other, ferr := s.FindByEmail(ctx, email); ferr == nil && other.ID != selfID {
			field = "email"
		}
	}
	if field == "company" && company == "" {
		field = "email"
	}
	return domain.Conflict("Duplicate field value: "+field+". Please use another value!", err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
