package models

import "time"

type Setting struct {
	Key       string `gorm:"type:varchar(64);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (Setting) TableName() string {
	return "settings"
}

// All lists every model for schema migration
func All() []interface{} {
	return []interface{}{
		&User{},
		&DepositWallet{},
		&Deposit{},
		&Transaction{},
		&FactoryPurchase{},
		&Setting{},
	}
}
