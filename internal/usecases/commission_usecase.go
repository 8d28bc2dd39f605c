package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/internal/infrastructure/metrics"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/utils"
)

var hundred = decimal.NewFromInt(100)

// DepositCommissionInput identifies a credited deposit to pay commissions on
type DepositCommissionInput struct {
	SourceUserID  uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	DepositTxHash string
}

// PurchaseCommissionInput identifies a factory purchase to pay commissions on
type PurchaseCommissionInput struct {
	BuyerID         uuid.UUID
	PurchaseID      uuid.UUID
	Price           decimal.Decimal
	Currency        string
	IsFirstPurchase bool
}

// CommissionUsecase pays referral commissions up the referral chain.
//
// Deposits pay a percentage per level, all levels in one transaction.
// A user's first purchase pays fixed amounts, each level on its own.
// Callers invoke it at most once per event; the commission key unique index
// turns an accidental replay into a no-op.
type CommissionUsecase struct {
	uow      repositories.UnitOfWork
	userRepo repositories.UserRepository
	txRepo   repositories.TransactionRepository
	settings repositories.SettingsRepository
	notifier Notifier
	tasks    TaskDispatcher
}

// NewCommissionUsecase creates a new commission usecase
func NewCommissionUsecase(
	uow repositories.UnitOfWork,
	userRepo repositories.UserRepository,
	txRepo repositories.TransactionRepository,
	settings repositories.SettingsRepository,
	notifier Notifier,
	tasks TaskDispatcher,
) *CommissionUsecase {
	return &CommissionUsecase{
		uow:      uow,
		userRepo: userRepo,
		txRepo:   txRepo,
		settings: settings,
		notifier: notifier,
		tasks:    tasks,
	}
}

type payout struct {
	level       int
	beneficiary uuid.UUID
	amount      decimal.Decimal
}

// PayDepositCommissions credits level 1..3 ancestors depositAmount*percent/100.
// Either every level is paid or none is. Returns the number of levels paid.
func (u *CommissionUsecase) PayDepositCommissions(ctx context.Context, input DepositCommissionInput) (int, error) {
	mode := string(entities.CommissionModePercentage)
	if !input.Amount.IsPositive() {
		return 0, nil
	}

	percents, err := u.settings.GetReferralPercentages(ctx)
	if err != nil {
		metrics.RecordCommission(mode, "failed")
		return 0, fmt.Errorf("load referral percentages: %w", err)
	}
	if percents.IsZero() {
		logger.Debug(ctx, "No referral percentages configured, skipping commissions", zap.String("tx_hash", input.DepositTxHash))
		return 0, nil
	}

	ancestors, err := u.ancestors(ctx, input.SourceUserID)
	if err != nil {
		metrics.RecordCommission(mode, "failed")
		return 0, err
	}
	if len(ancestors) == 0 {
		return 0, nil
	}

	var paid []payout
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		paid = paid[:0]
		for i, ancestor := range ancestors {
			level := i + 1
			percent := percents.ForLevel(level)
			if !percent.IsPositive() {
				continue
			}
			amount := input.Amount.Mul(percent).Div(hundred)
			if !amount.IsPositive() {
				continue
			}

			meta, err := entities.NewDepositCommissionMetadata(level, input.SourceUserID, input.Amount, percent, input.DepositTxHash)
			if err != nil {
				return err
			}
			if err := u.userRepo.CreditCommission(txCtx, ancestor.ID, amount); err != nil {
				return fmt.Errorf("credit level %d referrer %s: %w", level, ancestor.ID, err)
			}
			if err := u.txRepo.Create(txCtx, &entities.Transaction{
				ID:            utils.GenerateUUIDv7(),
				UserID:        ancestor.ID,
				Type:          entities.TransactionTypeReferralCommission,
				Amount:        amount,
				Currency:      input.Currency,
				Status:        entities.TransactionStatusCompleted,
				Reference:     null.StringFrom(input.DepositTxHash),
				Metadata:      meta,
				CommissionKey: null.StringFrom(entities.DepositCommissionKey(input.DepositTxHash, level)),
				CreatedAt:     time.Now(),
			}); err != nil {
				return fmt.Errorf("record level %d commission: %w", level, err)
			}
			paid = append(paid, payout{level: level, beneficiary: ancestor.ID, amount: amount})
		}
		return nil
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		metrics.RecordCommission(mode, "duplicate")
		logger.Warn(ctx, "Deposit commissions already paid", zap.String("tx_hash", input.DepositTxHash))
		return 0, nil
	}
	if err != nil {
		metrics.RecordCommission(mode, "failed")
		logger.Error(ctx, "Deposit commissions rolled back",
			zap.String("tx_hash", input.DepositTxHash),
			zap.String("source_user_id", input.SourceUserID.String()),
			zap.Error(err),
		)
		return 0, err
	}

	for _, p := range paid {
		metrics.RecordCommission(mode, "paid")
		logger.Info(ctx, "Referral commission paid",
			zap.String("mode", mode),
			zap.Int("level", p.level),
			zap.String("referrer_id", p.beneficiary.String()),
			zap.String("amount", p.amount.String()),
			zap.String("tx_hash", input.DepositTxHash),
		)
		u.notifyReferrer(ctx, p, input.Currency)
	}
	return len(paid), nil
}

// PayFirstPurchaseCommissions credits fixed per-level amounts when input is
// the buyer's first purchase. Each level commits independently; a failed
// level is logged and the walk continues.
func (u *CommissionUsecase) PayFirstPurchaseCommissions(ctx context.Context, input PurchaseCommissionInput) (int, error) {
	mode := string(entities.CommissionModeFirstPurchase)
	if !input.IsFirstPurchase {
		return 0, nil
	}

	amounts, err := u.settings.GetPurchaseCommissionAmounts(ctx)
	if err != nil {
		metrics.RecordCommission(mode, "failed")
		return 0, fmt.Errorf("load purchase commission amounts: %w", err)
	}
	if amounts.IsZero() {
		return 0, nil
	}

	ancestors, err := u.ancestors(ctx, input.BuyerID)
	if err != nil {
		metrics.RecordCommission(mode, "failed")
		return 0, err
	}

	paid := 0
	var errs []error
	for i, ancestor := range ancestors {
		level := i + 1
		amount := amounts.ForLevel(level)
		if !amount.IsPositive() {
			continue
		}

		meta, err := entities.NewPurchaseCommissionMetadata(level, input.BuyerID, input.PurchaseID, input.Price)
		if err != nil {
			return paid, err
		}

		beneficiary := ancestor.ID
		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.userRepo.CreditCommission(txCtx, beneficiary, amount); err != nil {
				return err
			}
			return u.txRepo.Create(txCtx, &entities.Transaction{
				ID:            utils.GenerateUUIDv7(),
				UserID:        beneficiary,
				Type:          entities.TransactionTypePurchaseCommission,
				Amount:        amount,
				Currency:      input.Currency,
				Status:        entities.TransactionStatusCompleted,
				Reference:     null.StringFrom(input.PurchaseID.String()),
				Metadata:      meta,
				CommissionKey: null.StringFrom(entities.PurchaseCommissionKey(input.PurchaseID, level)),
				CreatedAt:     time.Now(),
			})
		})
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyExists):
			metrics.RecordCommission(mode, "duplicate")
			logger.Warn(ctx, "Purchase commission already paid",
				zap.String("purchase_id", input.PurchaseID.String()),
				zap.Int("level", level),
			)
		case err != nil:
			metrics.RecordCommission(mode, "failed")
			logger.Error(ctx, "Purchase commission failed",
				zap.String("purchase_id", input.PurchaseID.String()),
				zap.Int("level", level),
				zap.String("referrer_id", beneficiary.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("level %d: %w", level, err))
		default:
			paid++
			metrics.RecordCommission(mode, "paid")
			logger.Info(ctx, "Referral commission paid",
				zap.String("mode", mode),
				zap.Int("level", level),
				zap.String("referrer_id", beneficiary.String()),
				zap.String("amount", amount.String()),
				zap.String("purchase_id", input.PurchaseID.String()),
			)
			u.notifyReferrer(ctx, payout{level: level, beneficiary: beneficiary, amount: amount}, input.Currency)
		}
	}
	return paid, errors.Join(errs...)
}

// ancestors walks the referral chain upward, stopping at the first missing
// referrer or after MaxReferralLevels hops.
func (u *CommissionUsecase) ancestors(ctx context.Context, userID uuid.UUID) ([]*entities.User, error) {
	current, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	seen := map[uuid.UUID]bool{current.ID: true}
	chain := make([]*entities.User, 0, entities.MaxReferralLevels)
	for len(chain) < entities.MaxReferralLevels && current.HasReferrer() {
		referrerID := *current.ReferrerID
		if seen[referrerID] {
			logger.Warn(ctx, "Referral cycle detected", zap.String("user_id", userID.String()))
			break
		}

		referrer, err := u.userRepo.GetByID(ctx, referrerID)
		if errors.Is(err, domainerrors.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load referrer %s: %w", referrerID, err)
		}

		seen[referrer.ID] = true
		chain = append(chain, referrer)
		current = referrer
	}
	return chain, nil
}

func (u *CommissionUsecase) notifyReferrer(ctx context.Context, p payout, currency string) {
	if u.notifier == nil || u.tasks == nil {
		return
	}
	message := fmt.Sprintf("You earned %s %s from a level %d referral.", p.amount.String(), currency, p.level)
	if !u.tasks.Submit(fmt.Sprintf("notify:commission:%s:%d", p.beneficiary, p.level), func(taskCtx context.Context) error {
		return u.notifier.NotifyUser(taskCtx, p.beneficiary, message)
	}) {
		logger.Warn(ctx, "Commission notification dropped", zap.String("referrer_id", p.beneficiary.String()))
	}
}
