package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/utils"
)

// PurchaseUsecase buys factories from the user's balance
type PurchaseUsecase struct {
	uow          repositories.UnitOfWork
	userRepo     repositories.UserRepository
	purchaseRepo repositories.PurchaseRepository
	txRepo       repositories.TransactionRepository
	commissions  PurchaseCommissionPayer
	tasks        TaskDispatcher
	currency     string
}

// NewPurchaseUsecase creates a new purchase usecase
func NewPurchaseUsecase(
	uow repositories.UnitOfWork,
	userRepo repositories.UserRepository,
	purchaseRepo repositories.PurchaseRepository,
	txRepo repositories.TransactionRepository,
	commissions PurchaseCommissionPayer,
	tasks TaskDispatcher,
	currency string,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		uow:          uow,
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		txRepo:       txRepo,
		commissions:  commissions,
		tasks:        tasks,
		currency:     currency,
	}
}

// BuyFactory debits the price and records the purchase. The user's first
// purchase queues fixed-amount referral commissions.
func (u *PurchaseUsecase) BuyFactory(ctx context.Context, input *entities.BuyFactoryInput) (*entities.FactoryPurchase, error) {
	code := strings.TrimSpace(input.FactoryCode)
	if code == "" || !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: factory code and a positive price are required", domainerrors.ErrInvalidInput)
	}

	purchase := &entities.FactoryPurchase{
		ID:          utils.GenerateUUIDv7(),
		UserID:      input.UserID,
		FactoryCode: code,
		Price:       input.Price,
		CreatedAt:   time.Now(),
	}

	firstPurchase := false
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		// the buyer row stays locked until commit so concurrent purchases
		// cannot both see zero prior purchases
		buyer, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), input.UserID)
		if err != nil {
			return err
		}
		firstPurchase = buyer.PurchaseCount == 0 && buyer.TotalSpent.IsZero()

		if err := u.userRepo.Debit(txCtx, input.UserID, input.Price); err != nil {
			return err
		}

		if err := u.purchaseRepo.Create(txCtx, purchase); err != nil {
			return err
		}
		return u.txRepo.Create(txCtx, &entities.Transaction{
			ID:        utils.GenerateUUIDv7(),
			UserID:    input.UserID,
			Type:      entities.TransactionTypePurchase,
			Amount:    input.Price,
			Currency:  u.currency,
			Status:    entities.TransactionStatusCompleted,
			Reference: null.StringFrom(purchase.ID.String()),
			Metadata: entities.PurchaseMetadata{
				PurchaseID:    purchase.ID,
				FactoryCode:   code,
				FirstPurchase: firstPurchase,
			},
			CreatedAt: purchase.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Factory purchased",
		zap.String("user_id", input.UserID.String()),
		zap.String("factory", code),
		zap.String("price", input.Price.String()),
		zap.Bool("first_purchase", firstPurchase),
	)

	if firstPurchase && u.commissions != nil && u.tasks != nil {
		commissionInput := PurchaseCommissionInput{
			BuyerID:         input.UserID,
			PurchaseID:      purchase.ID,
			Price:           input.Price,
			Currency:        u.currency,
			IsFirstPurchase: true,
		}
		if !u.tasks.Submit("commission:purchase:"+purchase.ID.String(), func(taskCtx context.Context) error {
			_, err := u.commissions.PayFirstPurchaseCommissions(taskCtx, commissionInput)
			return err
		}) {
			logger.Error(ctx, "Purchase commission fan-out dropped", zap.String("purchase_id", purchase.ID.String()))
		}
	}
	return purchase, nil
}
