package repositories

import (
	"context"

	"github.com/google/uuid"
	"minefactory.backend/internal/domain/entities"
)

// TransactionRepository defines ledger entry operations. Create returns
// ErrAlreadyExists when the entry's commission key is taken.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, txType entities.TransactionType, limit, offset int) ([]*entities.Transaction, int64, error)
}
