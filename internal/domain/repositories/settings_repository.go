package repositories

import (
	"context"

	"minefactory.backend/internal/domain/entities"
)

// SettingsRepository reads operator-tunable settings. Values are read on
// every call so changes apply without a restart.
type SettingsRepository interface {
	GetReferralPercentages(ctx context.Context) (entities.ReferralPercentages, error)
	GetPurchaseCommissionAmounts(ctx context.Context) (entities.PurchaseCommissionAmounts, error)
	Set(ctx context.Context, key, value string) error
}
