package repositories

import (
	"context"

	"github.com/google/uuid"
	"minefactory.backend/internal/domain/entities"
)

// WalletRepository defines deposit wallet and checkpoint operations
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	GetByUserAndChain(ctx context.Context, userID uuid.UUID, chain string) (*entities.Wallet, error)
	ListByChain(ctx context.Context, chain string) ([]*entities.Wallet, error)
	NextDerivationIndex(ctx context.Context, chain string) (uint32, error)
	// AdvanceCheckpoint moves last_scanned_block forward. It returns
	// ErrCheckpointNotAdvanced when newBlock is not above the stored value.
	AdvanceCheckpoint(ctx context.Context, id uuid.UUID, newBlock uint64) error
	// ResetCheckpoint sets last_scanned_block unconditionally (operator only)
	ResetCheckpoint(ctx context.Context, id uuid.UUID, block uint64) error
}
