package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Deposit struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TxHash        string          `gorm:"type:varchar(66);not null;uniqueIndex:idx_deposits_tx_hash"`
	LogIndex      uint            `gorm:"not null;default:0"`
	FromAddress   string          `gorm:"type:varchar(64)"`
	WalletID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	WalletAddress string          `gorm:"type:varchar(64);not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	Currency      string          `gorm:"type:varchar(16);not null"`
	BlockNumber   uint64          `gorm:"not null;index"`
	Source        string          `gorm:"type:varchar(32);not null"`
	CreatedAt     time.Time
}

func (Deposit) TableName() string {
	return "deposits"
}
