package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/infrastructure/models"
)

// DepositRepository implements the credited deposit ledger
type DepositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create inserts a deposit; a repeated tx hash yields ErrAlreadyExists
func (r *DepositRepository) Create(ctx context.Context, deposit *entities.Deposit) error {
	m := &models.Deposit{
		ID:            deposit.ID,
		TxHash:        normalizeTxHash(deposit.TxHash),
		LogIndex:      deposit.LogIndex,
		FromAddress:   entities.NormalizeAddress(deposit.FromAddress),
		WalletID:      deposit.WalletID,
		WalletAddress: entities.NormalizeAddress(deposit.WalletAddress),
		UserID:        deposit.UserID,
		Amount:        deposit.Amount,
		Currency:      deposit.Currency,
		BlockNumber:   deposit.BlockNumber,
		Source:        string(deposit.Source),
		CreatedAt:     deposit.CreatedAt,
	}
	return translateCreateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByTxHash gets a credited deposit by transaction hash
func (r *DepositRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.Deposit, error) {
	var m models.Deposit
	if err := GetDB(ctx, r.db).Where("tx_hash = ?", normalizeTxHash(txHash)).First(&m).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &entities.Deposit{
		ID:            m.ID,
		TxHash:        m.TxHash,
		LogIndex:      m.LogIndex,
		FromAddress:   m.FromAddress,
		WalletID:      m.WalletID,
		WalletAddress: m.WalletAddress,
		UserID:        m.UserID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		BlockNumber:   m.BlockNumber,
		Source:        entities.DepositSource(m.Source),
		CreatedAt:     m.CreatedAt,
	}, nil
}

// ExistsByTxHash reports whether the tx hash was already credited
func (r *DepositRepository) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.Deposit{}).Where("tx_hash = ?", normalizeTxHash(txHash)).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func normalizeTxHash(txHash string) string {
	return strings.ToLower(strings.TrimSpace(txHash))
}
