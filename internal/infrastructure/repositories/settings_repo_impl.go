package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/infrastructure/models"
)

// SettingsRepository implements key/value settings, read fresh on every call
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetReferralPercentages reads referral_percent_level1..3. Missing keys are zero.
func (r *SettingsRepository) GetReferralPercentages(ctx context.Context) (entities.ReferralPercentages, error) {
	levels, err := r.readLevels(ctx, entities.SettingReferralPercentPrefix)
	if err != nil {
		return entities.ReferralPercentages{}, err
	}
	return entities.ReferralPercentages{Level1: levels[0], Level2: levels[1], Level3: levels[2]}, nil
}

// GetPurchaseCommissionAmounts reads purchase_commission_level1..3. Missing keys are zero.
func (r *SettingsRepository) GetPurchaseCommissionAmounts(ctx context.Context) (entities.PurchaseCommissionAmounts, error) {
	levels, err := r.readLevels(ctx, entities.SettingPurchaseCommissionPrefix)
	if err != nil {
		return entities.PurchaseCommissionAmounts{}, err
	}
	return entities.PurchaseCommissionAmounts{Level1: levels[0], Level2: levels[1], Level3: levels[2]}, nil
}

// Set upserts a setting
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

func (r *SettingsRepository) readLevels(ctx context.Context, prefix string) ([entities.MaxReferralLevels]decimal.Decimal, error) {
	var out [entities.MaxReferralLevels]decimal.Decimal
	keys := make([]string, entities.MaxReferralLevels)
	for i := range keys {
		keys[i] = prefix + strconv.Itoa(i+1)
	}

	var rows []models.Setting
	if err := GetDB(ctx, r.db).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return out, err
	}

	for _, row := range rows {
		for i, key := range keys {
			if row.Key != key {
				continue
			}
			v, err := decimal.NewFromString(row.Value)
			if err != nil {
				return out, fmt.Errorf("setting %s: %w", key, err)
			}
			if v.IsNegative() {
				return out, fmt.Errorf("setting %s: negative value %s", key, row.Value)
			}
			out[i] = v
		}
	}
	return out, nil
}
