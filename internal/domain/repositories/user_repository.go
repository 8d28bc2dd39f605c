package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"minefactory.backend/internal/domain/entities"
)

// UserRepository defines user account operations. Balance mutations are
// increment-style updates so concurrent credits never lose each other.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)
	// CreditDeposit adds amount to balance and total_deposited
	CreditDeposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// CreditCommission adds amount to balance and total_commission
	CreditCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	// Debit subtracts amount from balance when it is sufficient, bumping
	// total_spent and purchase_count. Returns ErrInsufficientFunds otherwise.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	ListReferrals(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*entities.ReferralSummary, int64, error)
}
