package usecases

import (
	"context"

	"github.com/google/uuid"

	"minefactory.backend/internal/domain/entities"
)

// TaskDispatcher hands side effects to a bounded background queue. Submit
// never blocks; it returns false when the task was dropped.
type TaskDispatcher interface {
	Submit(name string, fn func(ctx context.Context) error) bool
}

// Notifier delivers best-effort messages to users
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, message string) error
}

// HeightReader reports the current chain head
type HeightReader interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// TransferLookup finds a token transfer to recipient inside a transaction
type TransferLookup interface {
	GetTransferByTxHash(ctx context.Context, token, recipient, txHash string) (*entities.TransferLog, error)
}

// AddressDeriver derives the deposit address for an HD index
type AddressDeriver interface {
	DeriveAddress(index uint32) (string, error)
}

// DepositCommissionPayer pays percentage commissions for a credited deposit
type DepositCommissionPayer interface {
	PayDepositCommissions(ctx context.Context, input DepositCommissionInput) (int, error)
}

// PurchaseCommissionPayer pays fixed commissions for a first purchase
type PurchaseCommissionPayer interface {
	PayFirstPurchaseCommissions(ctx context.Context, input PurchaseCommissionInput) (int, error)
}
