package repositories

import (
	"context"

	"gorm.io/gorm"
	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/infrastructure/models"
)

// PurchaseRepository implements factory purchase persistence
type PurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Create stores a purchase
func (r *PurchaseRepository) Create(ctx context.Context, purchase *entities.FactoryPurchase) error {
	return translateCreateError(GetDB(ctx, r.db).Create(&models.FactoryPurchase{
		ID:          purchase.ID,
		UserID:      purchase.UserID,
		FactoryCode: purchase.FactoryCode,
		Price:       purchase.Price,
		CreatedAt:   purchase.CreatedAt,
	}).Error)
}
