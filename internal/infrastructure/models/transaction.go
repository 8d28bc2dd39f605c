package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(32);not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	Currency      string          `gorm:"type:varchar(16);not null"`
	Status        string          `gorm:"type:varchar(20);not null"`
	Reference     null.String     `gorm:"type:varchar(128);index"`
	Metadata      null.String     `gorm:"type:jsonb"`
	CommissionKey null.String     `gorm:"type:varchar(160);uniqueIndex:idx_transactions_commission_key"`
	CreatedAt     time.Time
}

func (Transaction) TableName() string {
	return "transactions"
}
