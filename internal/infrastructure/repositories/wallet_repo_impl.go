package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/infrastructure/models"
)

// WalletRepository implements deposit wallet persistence
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create stores a new deposit wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	m := &models.DepositWallet{
		ID:               wallet.ID,
		UserID:           wallet.UserID,
		Chain:            wallet.Chain,
		Address:          entities.NormalizeAddress(wallet.Address),
		DerivationIndex:  wallet.DerivationIndex,
		LastScannedBlock: wallet.LastScannedBlock,
		CreatedAt:        wallet.CreatedAt,
		UpdatedAt:        wallet.UpdatedAt,
	}
	return translateCreateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	var m models.DepositWallet
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return toWalletEntity(&m), nil
}

// GetByUserAndChain gets the user's deposit wallet on chain
func (r *WalletRepository) GetByUserAndChain(ctx context.Context, userID uuid.UUID, chain string) (*entities.Wallet, error) {
	var m models.DepositWallet
	if err := GetDB(ctx, r.db).Where("user_id = ? AND chain = ?", userID, chain).First(&m).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return toWalletEntity(&m), nil
}

// ListByChain lists every wallet on chain in creation order
func (r *WalletRepository) ListByChain(ctx context.Context, chain string) ([]*entities.Wallet, error) {
	var rows []models.DepositWallet
	if err := GetDB(ctx, r.db).Where("chain = ?", chain).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	wallets := make([]*entities.Wallet, 0, len(rows))
	for i := range rows {
		wallets = append(wallets, toWalletEntity(&rows[i]))
	}
	return wallets, nil
}

// NextDerivationIndex returns one past the highest index used on chain
func (r *WalletRepository) NextDerivationIndex(ctx context.Context, chain string) (uint32, error) {
	var next int64
	err := GetDB(ctx, r.db).Model(&models.DepositWallet{}).
		Where("chain = ?", chain).
		Select("COALESCE(MAX(derivation_index) + 1, 0)").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return uint32(next), nil
}

// AdvanceCheckpoint moves last_scanned_block forward only
func (r *WalletRepository) AdvanceCheckpoint(ctx context.Context, id uuid.UUID, newBlock uint64) error {
	result := GetDB(ctx, r.db).Model(&models.DepositWallet{}).
		Where("id = ? AND last_scanned_block < ?", id, newBlock).
		Updates(map[string]interface{}{
			"last_scanned_block": newBlock,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainerrors.ErrCheckpointNotAdvanced
	}
	return nil
}

// ResetCheckpoint overwrites last_scanned_block
func (r *WalletRepository) ResetCheckpoint(ctx context.Context, id uuid.UUID, block uint64) error {
	result := GetDB(ctx, r.db).Model(&models.DepositWallet{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_scanned_block": block,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toWalletEntity(m *models.DepositWallet) *entities.Wallet {
	return &entities.Wallet{
		ID:               m.ID,
		UserID:           m.UserID,
		Chain:            m.Chain,
		Address:          m.Address,
		DerivationIndex:  m.DerivationIndex,
		LastScannedBlock: m.LastScannedBlock,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
