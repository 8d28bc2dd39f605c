package models

import (
	"time"

	"github.com/google/uuid"
)

// DepositWallet is one HD-derived receive address per (user, chain)
type DepositWallet struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_deposit_wallets_user_chain"`
	Chain            string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_deposit_wallets_user_chain;uniqueIndex:idx_deposit_wallets_chain_address;uniqueIndex:idx_deposit_wallets_chain_index"`
	Address          string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_deposit_wallets_chain_address"`
	DerivationIndex  uint32    `gorm:"not null;uniqueIndex:idx_deposit_wallets_chain_index"`
	LastScannedBlock uint64    `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (DepositWallet) TableName() string {
	return "deposit_wallets"
}
