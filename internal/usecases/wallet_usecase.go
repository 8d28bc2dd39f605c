package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/utils"
)

const maxDerivationAttempts = 5

// WalletUsecase hands out deposit wallets and lets operators move checkpoints
type WalletUsecase struct {
	walletRepo repositories.WalletRepository
	userRepo   repositories.UserRepository
	deriver    AddressDeriver
	chain      HeightReader
	chainName  string
	lookback   uint64
}

// NewWalletUsecase creates a new wallet usecase
func NewWalletUsecase(
	walletRepo repositories.WalletRepository,
	userRepo repositories.UserRepository,
	deriver AddressDeriver,
	chain HeightReader,
	chainName string,
	lookback uint64,
) *WalletUsecase {
	return &WalletUsecase{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		deriver:    deriver,
		chain:      chain,
		chainName:  chainName,
		lookback:   lookback,
	}
}

// GetOrCreateDepositWallet returns the user's deposit wallet, deriving a new
// address on first request. A new wallet starts scanning a few blocks behind
// the current head so no historical backlog is scanned.
func (u *WalletUsecase) GetOrCreateDepositWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	existing, err := u.walletRepo.GetByUserAndChain(ctx, userID, u.chainName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	if _, err := u.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	height, err := u.chain.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain height: %w", err)
	}
	checkpoint := uint64(0)
	if height > u.lookback {
		checkpoint = height - u.lookback
	}

	for attempt := 0; attempt < maxDerivationAttempts; attempt++ {
		index, err := u.walletRepo.NextDerivationIndex(ctx, u.chainName)
		if err != nil {
			return nil, err
		}
		address, err := u.deriver.DeriveAddress(index)
		if err != nil {
			return nil, fmt.Errorf("derive address %d: %w", index, err)
		}

		wallet := &entities.Wallet{
			ID:               utils.GenerateUUIDv7(),
			UserID:           userID,
			Chain:            u.chainName,
			Address:          entities.NormalizeAddress(address),
			DerivationIndex:  index,
			LastScannedBlock: checkpoint,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		err = u.walletRepo.Create(ctx, wallet)
		if err == nil {
			logger.Info(ctx, "Deposit wallet created",
				zap.String("user_id", userID.String()),
				zap.String("address", wallet.Address),
				zap.Uint32("index", index),
				zap.Uint64("checkpoint", checkpoint),
			)
			return wallet, nil
		}
		if !errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, err
		}

		// either a concurrent request created this user's wallet or another
		// user took the index
		if existing, getErr := u.walletRepo.GetByUserAndChain(ctx, userID, u.chainName); getErr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("allocate derivation index: %w", domainerrors.ErrAlreadyExists)
}

// GetWallet returns a wallet by ID
func (u *WalletUsecase) GetWallet(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return u.walletRepo.GetByID(ctx, id)
}

// ResetCheckpoint moves a wallet's checkpoint to an operator-chosen block.
// It is the only path allowed to move a checkpoint backwards.
func (u *WalletUsecase) ResetCheckpoint(ctx context.Context, walletID uuid.UUID, input *entities.ResetCheckpointInput) (*entities.Wallet, error) {
	if input == nil || input.Block == nil {
		return nil, fmt.Errorf("%w: block is required", domainerrors.ErrInvalidInput)
	}

	wallet, err := u.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if err := u.walletRepo.ResetCheckpoint(ctx, walletID, *input.Block); err != nil {
		return nil, err
	}

	logger.Warn(ctx, "Wallet checkpoint reset by operator",
		zap.String("wallet_id", walletID.String()),
		zap.Uint64("from_block", wallet.LastScannedBlock),
		zap.Uint64("to_block", *input.Block),
		zap.String("reason", input.Reason),
	)
	wallet.LastScannedBlock = *input.Block
	return wallet, nil
}
