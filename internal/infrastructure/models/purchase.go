package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FactoryPurchase struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	FactoryCode string          `gorm:"type:varchar(64);not null"`
	Price       decimal.Decimal `gorm:"type:numeric(36,18);not null"`
	CreatedAt   time.Time
}

func (FactoryPurchase) TableName() string {
	return "factory_purchases"
}
