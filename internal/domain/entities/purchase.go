package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FactoryPurchase is a virtual factory bought from the user's balance
type FactoryPurchase struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	FactoryCode string          `json:"factoryCode"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// BuyFactoryInput is a purchase request
type BuyFactoryInput struct {
	UserID      uuid.UUID       `json:"userId" binding:"required"`
	FactoryCode string          `json:"factoryCode" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
}
