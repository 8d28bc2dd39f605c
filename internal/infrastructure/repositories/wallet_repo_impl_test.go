package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
)

func newWallet(userID uuid.UUID, address string, index uint32, checkpoint uint64) *entities.Wallet {
	return &entities.Wallet{
		ID:               uuid.New(),
		UserID:           userID,
		Chain:            entities.ChainBSC,
		Address:          address,
		DerivationIndex:  index,
		LastScannedBlock: checkpoint,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

func TestWalletRepository_CreateAndLookup(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	w := newWallet(userID, "0xABCDEF", 0, 100)
	require.NoError(t, repo.Create(ctx, w))

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, "0xabcdef", got.Address)
	require.Equal(t, uint64(100), got.LastScannedBlock)

	byUser, err := repo.GetByUserAndChain(ctx, userID, entities.ChainBSC)
	require.NoError(t, err)
	require.Equal(t, w.ID, byUser.ID)

	_, err = repo.GetByUserAndChain(ctx, userID, "tron")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWalletRepository_OneWalletPerUserAndChain(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, repo.Create(ctx, newWallet(userID, "0x1", 0, 0)))
	require.ErrorIs(t, repo.Create(ctx, newWallet(userID, "0x2", 1, 0)), domainerrors.ErrAlreadyExists)
	require.ErrorIs(t, repo.Create(ctx, newWallet(uuid.New(), "0x1", 2, 0)), domainerrors.ErrAlreadyExists)
	require.ErrorIs(t, repo.Create(ctx, newWallet(uuid.New(), "0x3", 0, 0)), domainerrors.ErrAlreadyExists)
}

func TestWalletRepository_ListByChainAndNextIndex(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()

	next, err := repo.NextDerivationIndex(ctx, entities.ChainBSC)
	require.NoError(t, err)
	require.Equal(t, uint32(0), next)

	require.NoError(t, repo.Create(ctx, newWallet(uuid.New(), "0x1", 0, 0)))
	require.NoError(t, repo.Create(ctx, newWallet(uuid.New(), "0x2", 4, 0)))

	next, err = repo.NextDerivationIndex(ctx, entities.ChainBSC)
	require.NoError(t, err)
	require.Equal(t, uint32(5), next)

	list, err := repo.ListByChain(ctx, entities.ChainBSC)
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = repo.ListByChain(ctx, "tron")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestWalletRepository_AdvanceCheckpointIsMonotonic(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWalletRepository(db)
	ctx := context.Background()
	w := newWallet(uuid.New(), "0x1", 0, 100)
	require.NoError(t, repo.Create(ctx, w))

	require.NoError(t, repo.AdvanceCheckpoint(ctx, w.ID, 2100))
	require.ErrorIs(t, repo.AdvanceCheckpoint(ctx, w.ID, 2100), domainerrors.ErrCheckpointNotAdvanced)
	require.ErrorIs(t, repo.AdvanceCheckpoint(ctx, w.ID, 50), domainerrors.ErrCheckpointNotAdvanced)
	require.ErrorIs(t, repo.AdvanceCheckpoint(ctx, uuid.New(), 5000), domainerrors.ErrNotFound)

	got, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2100), got.LastScannedBlock)

	require.NoError(t, repo.ResetCheckpoint(ctx, w.ID, 10))
	got, err = repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.LastScannedBlock)
	require.ErrorIs(t, repo.ResetCheckpoint(ctx, uuid.New(), 1), domainerrors.ErrNotFound)
}
