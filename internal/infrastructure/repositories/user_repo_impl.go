package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/infrastructure/models"
)

// UserRepository implements user account operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	m := &models.User{
		ID:              user.ID,
		TelegramID:      user.TelegramID,
		Username:        user.Username,
		ReferrerID:      user.ReferrerID,
		Balance:         user.Balance,
		TotalDeposited:  user.TotalDeposited,
		TotalCommission: user.TotalCommission,
		TotalSpent:      user.TotalSpent,
		PurchaseCount:   user.PurchaseCount,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	return translateCreateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return r.toEntity(&m), nil
}

// GetByTelegramID gets a user by Telegram account id
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("telegram_id = ?", telegramID).First(&m).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return r.toEntity(&m), nil
}

// CreditDeposit adds a credited deposit to the balance
func (r *UserRepository) CreditDeposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.increment(ctx, id, amount, "total_deposited")
}

// CreditCommission adds a referral payout to the balance
func (r *UserRepository) CreditCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.increment(ctx, id, amount, "total_commission")
}

func (r *UserRepository) increment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, counter string) error {
	if !amount.IsPositive() {
		return domainerrors.ErrInvalidInput
	}
	result := GetDB(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"balance":    gorm.Expr("balance + ?", amount),
		counter:      gorm.Expr(counter+" + ?", amount),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Debit subtracts amount when the balance covers it
func (r *UserRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domainerrors.ErrInvalidInput
	}
	result := GetDB(ctx, r.db).Model(&models.User{}).
		Where("id = ? AND balance >= ?", id, amount).
		Updates(map[string]interface{}{
			"balance":        gorm.Expr("balance - ?", amount),
			"total_spent":    gorm.Expr("total_spent + ?", amount),
			"purchase_count": gorm.Expr("purchase_count + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainerrors.ErrInsufficientFunds
	}
	return nil
}

// ListReferrals lists direct descendants of referrerID, newest first
func (r *UserRepository) ListReferrals(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*entities.ReferralSummary, int64, error) {
	var total int64
	query := GetDB(ctx, r.db).Model(&models.User{}).Where("referrer_id = ?", referrerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	q := GetDB(ctx, r.db).Where("referrer_id = ?", referrerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.ReferralSummary, 0, len(rows))
	for _, m := range rows {
		out = append(out, &entities.ReferralSummary{
			ID:             m.ID,
			TelegramID:     m.TelegramID,
			Username:       m.Username,
			TotalDeposited: m.TotalDeposited,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out, total, nil
}

func (r *UserRepository) toEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:              m.ID,
		TelegramID:      m.TelegramID,
		Username:        m.Username,
		ReferrerID:      m.ReferrerID,
		Balance:         m.Balance,
		TotalDeposited:  m.TotalDeposited,
		TotalCommission: m.TotalCommission,
		TotalSpent:      m.TotalSpent,
		PurchaseCount:   m.PurchaseCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
