package repositories

import (
	"context"

	"minefactory.backend/internal/domain/entities"
)

// DepositRepository defines the credited deposit ledger. Create returns
// ErrAlreadyExists when the tx hash was already recorded.
type DepositRepository interface {
	Create(ctx context.Context, deposit *entities.Deposit) error
	GetByTxHash(ctx context.Context, txHash string) (*entities.Deposit, error)
	ExistsByTxHash(ctx context.Context, txHash string) (bool, error)
}
