package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// User is a player account synced from Telegram
type User struct {
	ID              uuid.UUID       `json:"id"`
	TelegramID      int64           `json:"telegramId"`
	Username        null.String     `json:"username,omitempty"`
	ReferrerID      *uuid.UUID      `json:"referrerId,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	TotalDeposited  decimal.Decimal `json:"totalDeposited"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	PurchaseCount   int             `json:"purchaseCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasReferrer reports whether the user was invited by someone
func (u *User) HasReferrer() bool {
	return u != nil && u.ReferrerID != nil && *u.ReferrerID != uuid.Nil
}

// ReferralSummary is a direct descendant as shown to operators
type ReferralSummary struct {
	ID             uuid.UUID       `json:"id"`
	TelegramID     int64           `json:"telegramId"`
	Username       null.String     `json:"username,omitempty"`
	TotalDeposited decimal.Decimal `json:"totalDeposited"`
	CreatedAt      time.Time       `json:"createdAt"`
}
