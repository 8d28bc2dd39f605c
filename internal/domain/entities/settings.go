package entities

import "github.com/shopspring/decimal"

// MaxReferralLevels is how far up the referral chain commissions are paid
const MaxReferralLevels = 3

// Settings keys
const (
	SettingReferralPercentPrefix    = "referral_percent_level"
	SettingPurchaseCommissionPrefix = "purchase_commission_level"
)

// ReferralPercentages are the per-level deposit commission rates in percent
type ReferralPercentages struct {
	Level1 decimal.Decimal `json:"level1"`
	Level2 decimal.Decimal `json:"level2"`
	Level3 decimal.Decimal `json:"level3"`
}

// ForLevel returns the rate for level 1..3, zero otherwise
func (p ReferralPercentages) ForLevel(level int) decimal.Decimal {
	return pickLevel(level, p.Level1, p.Level2, p.Level3)
}

// IsZero reports whether no level pays anything
func (p ReferralPercentages) IsZero() bool {
	return !p.Level1.IsPositive() && !p.Level2.IsPositive() && !p.Level3.IsPositive()
}

// PurchaseCommissionAmounts are the fixed per-level payouts for a first purchase
type PurchaseCommissionAmounts struct {
	Level1 decimal.Decimal `json:"level1"`
	Level2 decimal.Decimal `json:"level2"`
	Level3 decimal.Decimal `json:"level3"`
}

// ForLevel returns the amount for level 1..3, zero otherwise
func (a PurchaseCommissionAmounts) ForLevel(level int) decimal.Decimal {
	return pickLevel(level, a.Level1, a.Level2, a.Level3)
}

// IsZero reports whether no level pays anything
func (a PurchaseCommissionAmounts) IsZero() bool {
	return !a.Level1.IsPositive() && !a.Level2.IsPositive() && !a.Level3.IsPositive()
}

func pickLevel(level int, l1, l2, l3 decimal.Decimal) decimal.Decimal {
	switch level {
	case 1:
		return l1
	case 2:
		return l2
	case 3:
		return l3
	default:
		return decimal.Zero
	}
}
