package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

type User struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TelegramID      int64           `gorm:"uniqueIndex;not null"`
	Username        null.String     `gorm:"type:varchar(64)"`
	ReferrerID      *uuid.UUID      `gorm:"type:uuid;index"`
	Balance         decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TotalDeposited  decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TotalCommission decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	TotalSpent      decimal.Decimal `gorm:"type:numeric(36,18);not null;default:0"`
	PurchaseCount   int             `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}
