package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/pkg/logger"
)

var maxReferralPercent = decimal.NewFromInt(100)

// CommissionSettings is the operator view of both commission tables
type CommissionSettings struct {
	ReferralPercentages       entities.ReferralPercentages       `json:"referralPercentages"`
	PurchaseCommissionAmounts entities.PurchaseCommissionAmounts `json:"purchaseCommissionAmounts"`
}

// SettingsUsecase reads and updates commission settings
type SettingsUsecase struct {
	settings repositories.SettingsRepository
}

// NewSettingsUsecase creates a new settings usecase
func NewSettingsUsecase(settings repositories.SettingsRepository) *SettingsUsecase {
	return &SettingsUsecase{settings: settings}
}

// GetCommissionSettings returns the current rates and fixed amounts
func (u *SettingsUsecase) GetCommissionSettings(ctx context.Context) (*CommissionSettings, error) {
	pct, err := u.settings.GetReferralPercentages(ctx)
	if err != nil {
		return nil, err
	}
	amounts, err := u.settings.GetPurchaseCommissionAmounts(ctx)
	if err != nil {
		return nil, err
	}
	return &CommissionSettings{ReferralPercentages: pct, PurchaseCommissionAmounts: amounts}, nil
}

// UpdateSetting stores one commission setting. Only the per-level keys are
// accepted; percentages must lie in [0, 100] and amounts must not be negative.
func (u *SettingsUsecase) UpdateSetting(ctx context.Context, key, value string) error {
	prefix, ok := settingPrefix(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domainerrors.ErrInvalidInput, key)
	}

	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s is not a number", domainerrors.ErrInvalidInput, key)
	}
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", domainerrors.ErrInvalidInput, key)
	}
	if prefix == entities.SettingReferralPercentPrefix && v.GreaterThan(maxReferralPercent) {
		return fmt.Errorf("%w: %s must not exceed 100", domainerrors.ErrInvalidInput, key)
	}

	if err := u.settings.Set(ctx, key, v.String()); err != nil {
		return err
	}
	logger.Info(ctx, "Commission setting updated", zap.String("key", key), zap.String("value", v.String()))
	return nil
}

func settingPrefix(key string) (string, bool) {
	for _, prefix := range []string{entities.SettingReferralPercentPrefix, entities.SettingPurchaseCommissionPrefix} {
		rest, found := strings.CutPrefix(key, prefix)
		if !found {
			continue
		}
		level, err := strconv.Atoi(rest)
		if err != nil || level < 1 || level > entities.MaxReferralLevels || rest != strconv.Itoa(level) {
			return "", false
		}
		return prefix, true
	}
	return "", false
}
