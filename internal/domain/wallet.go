package domain

import (
	"crypto/sha256" // Credential stamp digest
	"encoding/hex"  // Stamp encoding
	"time"          // Timestamps

	"github.com/google/uuid"        // Wallet IDs
	"github.com/shopspring/decimal" // Display formatting
	"gorm.io/gorm"                  // GORM hooks
)

// Wallet roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Wallet Model
type Wallet struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`                  // UUID primary key
	Company      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"company"` // Owner key, lowercase
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`  // Login email, lowercase
	PasswordHash string    `gorm:"not null" json:"-"`                                    // Never serialized
	Role         string    `gorm:"type:varchar(16);not null;default:user" json:"role"`   // Role: user or admin
	Balance      int64     `gorm:"not null;default:0" json:"balance"`                    // Balance in minor units
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID to new wallets
func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Role == "" {
		w.Role = RoleUser
	}
	return nil
}

// CredentialStamp fingerprints the current password hash. It changes whenever
// the password does, and reveals nothing about the hash itself.
func (w *Wallet) CredentialStamp() string {
	sum := sha256.Sum256([]byte(w.PasswordHash))
	return hex.EncodeToString(sum[:])
}

// IsAdmin reports whether the wallet carries the admin role
func (w *Wallet) IsAdmin() bool {
	return w.Role == RoleAdmin
}

// WalletView is the public representation of a wallet
type WalletView struct {
	ID             string    `json:"id"`
	Company        string    `json:"company"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Balance        int64     `json:"balance"`
	BalanceDisplay string    `json:"balance_display"` // Balance in major units, two places
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// View converts the wallet into its public representation
func (w *Wallet) View() WalletView {
	return WalletView{
		ID:             w.ID,
		Company:        w.Company,
		Email:          w.Email,
		Role:           w.Role,
		Balance:        w.Balance,
		BalanceDisplay: decimal.New(w.Balance, -2).StringFixed(2),
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}
