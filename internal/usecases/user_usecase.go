package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/utils"
)

// SyncUserInput describes a Telegram account seen by the bot
type SyncUserInput struct {
	TelegramID         int64
	Username           string
	ReferrerTelegramID *int64
}

// ReferralPage is one page of a user's direct referrals
type ReferralPage struct {
	Items []*entities.ReferralSummary `json:"items"`
	Meta  utils.PageMeta              `json:"meta"`
}

// UserUsecase manages player accounts and their referral tree
type UserUsecase struct {
	userRepo repositories.UserRepository
}

// NewUserUsecase creates a new user usecase
func NewUserUsecase(userRepo repositories.UserRepository) *UserUsecase {
	return &UserUsecase{userRepo: userRepo}
}

// SyncTelegramUser returns the account for a Telegram user, creating it on
// first contact. The referrer is only attached at creation.
func (u *UserUsecase) SyncTelegramUser(ctx context.Context, input SyncUserInput) (*entities.User, error) {
	if input.TelegramID == 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	existing, err := u.userRepo.GetByTelegramID(ctx, input.TelegramID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	user := &entities.User{
		ID:              utils.GenerateUUIDv7(),
		TelegramID:      input.TelegramID,
		Balance:         decimal.Zero,
		TotalDeposited:  decimal.Zero,
		TotalCommission: decimal.Zero,
		TotalSpent:      decimal.Zero,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if name := strings.TrimSpace(input.Username); name != "" {
		user.Username = null.StringFrom(name)
	}

	if input.ReferrerTelegramID != nil && *input.ReferrerTelegramID != input.TelegramID {
		referrer, err := u.userRepo.GetByTelegramID(ctx, *input.ReferrerTelegramID)
		switch {
		case err == nil:
			user.ReferrerID = &referrer.ID
		case errors.Is(err, domainerrors.ErrNotFound):
			logger.Warn(ctx, "Unknown referrer ignored", zap.Int64("referrer_telegram_id", *input.ReferrerTelegramID))
		default:
			return nil, err
		}
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return u.userRepo.GetByTelegramID(ctx, input.TelegramID)
		}
		return nil, err
	}
	return user, nil
}

// ListReferrals returns a page of the user's direct referrals
func (u *UserUsecase) ListReferrals(ctx context.Context, userID uuid.UUID, page, limit int) (*ReferralPage, error) {
	if _, err := u.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	p := utils.NewPage(page, limit)
	items, total, err := u.userRepo.ListReferrals(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entities.ReferralSummary{}
	}
	return &ReferralPage{Items: items, Meta: p.Meta(total)}, nil
}
