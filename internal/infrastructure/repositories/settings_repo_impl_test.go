package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"minefactory.backend/internal/domain/entities"
)

func TestSettingsRepository_ReadsFreshValues(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	p, err := repo.GetReferralPercentages(ctx)
	require.NoError(t, err)
	require.True(t, p.IsZero())

	require.NoError(t, repo.Set(ctx, "referral_percent_level1", "5"))
	require.NoError(t, repo.Set(ctx, "referral_percent_level2", "3"))
	require.NoError(t, repo.Set(ctx, "purchase_commission_level3", "0.75"))

	p, err = repo.GetReferralPercentages(ctx)
	require.NoError(t, err)
	require.True(t, p.Level1.Equal(decimal.NewFromInt(5)))
	require.True(t, p.Level2.Equal(decimal.NewFromInt(3)))
	require.True(t, p.Level3.IsZero())

	require.NoError(t, repo.Set(ctx, "referral_percent_level1", "7"))
	p, err = repo.GetReferralPercentages(ctx)
	require.NoError(t, err)
	require.True(t, p.Level1.Equal(decimal.NewFromInt(7)), "updated value must be visible without restart")

	a, err := repo.GetPurchaseCommissionAmounts(ctx)
	require.NoError(t, err)
	require.True(t, a.ForLevel(3).Equal(decimal.RequireFromString("0.75")))
}

func TestSettingsRepository_InvalidValues(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "referral_percent_level2", "abc"))
	_, err := repo.GetReferralPercentages(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "referral_percent_level2")

	require.NoError(t, repo.Set(ctx, "purchase_commission_level1", "-1"))
	_, err = repo.GetPurchaseCommissionAmounts(ctx)
	require.Error(t, err)
}

func TestPurchaseRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPurchaseRepository(db)
	p := &entities.FactoryPurchase{ID: uuid.New(), UserID: uuid.New(), FactoryCode: "basic", Price: decimal.NewFromInt(50)}
	require.NoError(t, repo.Create(context.Background(), p))

	var count int64
	require.NoError(t, db.Table("factory_purchases").Count(&count).Error)
	require.Equal(t, int64(1), count)
}
