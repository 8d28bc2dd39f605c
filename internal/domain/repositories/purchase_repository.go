package repositories

import (
	"context"

	"minefactory.backend/internal/domain/entities"
)

// PurchaseRepository defines factory purchase persistence
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entities.FactoryPurchase) error
}
