package repositories

import (
	"context"
)

// UnitOfWork defines the interface for atomic operations
type UnitOfWork interface {
	// Do executes fn within one transaction. Repository calls made with the
	// ctx passed to fn join that transaction; returning an error rolls back.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// WithLock returns a ctx whose reads inside Do lock the selected rows
	// until the transaction ends.
	WithLock(ctx context.Context) context.Context
}
