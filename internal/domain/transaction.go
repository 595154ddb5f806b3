package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Ledger IDs
	"gorm.io/gorm"           // GORM hooks
)

// Transaction types
const (
	TxTransfer = "transfer"
	TxDeposit  = "deposit"
)

// Transaction Model, one ledger row per committed balance movement
type Transaction struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`      // UUID primary key
	FromWalletID *string   `gorm:"type:char(36);index" json:"from_wallet_id"` // Sender, nil for deposits
	ToWalletID   *string   `gorm:"type:char(36);index" json:"to_wallet_id"`   // Receiver
	Amount       int64     `gorm:"not null" json:"amount"`                  // Amount in minor units
	Type         string    `gorm:"type:varchar(16);not null" json:"type"`   // Transaction type: deposit, transfer
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a UUID to new ledger rows
func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
