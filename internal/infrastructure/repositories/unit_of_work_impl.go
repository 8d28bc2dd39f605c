package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	domainRepos "minefactory.backend/internal/domain/repositories"
)

type contextKey string

const (
	txKey   contextKey = "tx_db"
	lockKey contextKey = "tx_lock"
)

var commitTx = func(tx *gorm.DB) error {
	return tx.Commit().Error
}

// UnitOfWorkImpl implements UnitOfWork using GORM
type UnitOfWorkImpl struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(db *gorm.DB) domainRepos.UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

// Do executes fn within a transaction. A nested Do joins the outer transaction.
func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		tx.Rollback()
		return err
	}

	if err := commitTx(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithLock marks ctx so reads through GetDB take row locks (SELECT ... FOR UPDATE)
func (u *UnitOfWorkImpl) WithLock(ctx context.Context) context.Context {
	return context.WithValue(ctx, lockKey, true)
}

// GetDB returns the transaction bound to ctx, or the base DB
func (u *UnitOfWorkImpl) GetDB(ctx context.Context) *gorm.DB {
	return GetDB(ctx, u.db)
}

// GetDB extracts the transaction from ctx if present, otherwise returns fallback.
// Repositories in this package route every query through it.
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	db := fallback
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		db = tx
	}
	db = db.WithContext(ctx)
	if locked, _ := ctx.Value(lockKey).(bool); locked {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
