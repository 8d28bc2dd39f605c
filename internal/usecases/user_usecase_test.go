package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/usecases"
	"minefactory.backend/pkg/utils"
)

func TestUserUsecase_SyncTelegramUser(t *testing.T) {
	users := new(MockUserRepository)
	uc := usecases.NewUserUsecase(users)
	ctx := context.Background()

	referrer := &entities.User{ID: uuid.New(), TelegramID: 1}
	refTG := int64(1)
	users.On("GetByTelegramID", mock.Anything, int64(2)).Return(nil, domainerrors.ErrNotFound).Once()
	users.On("GetByTelegramID", mock.Anything, int64(1)).Return(referrer, nil).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool {
		return u.TelegramID == 2 && u.ReferrerID != nil && *u.ReferrerID == referrer.ID && u.Username.String == "miner"
	})).Return(nil).Once()

	got, err := uc.SyncTelegramUser(ctx, usecases.SyncUserInput{TelegramID: 2, Username: " miner ", ReferrerTelegramID: &refTG})
	require.NoError(t, err)
	assert.True(t, got.HasReferrer())

	existing := &entities.User{ID: uuid.New(), TelegramID: 3}
	users.On("GetByTelegramID", mock.Anything, int64(3)).Return(existing, nil).Once()
	got, err = uc.SyncTelegramUser(ctx, usecases.SyncUserInput{TelegramID: 3})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	_, err = uc.SyncTelegramUser(ctx, usecases.SyncUserInput{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestUserUsecase_SyncTelegramUser_SelfReferralIgnored(t *testing.T) {
	users := new(MockUserRepository)
	uc := usecases.NewUserUsecase(users)
	self := int64(9)

	users.On("GetByTelegramID", mock.Anything, int64(9)).Return(nil, domainerrors.ErrNotFound).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *entities.User) bool { return u.ReferrerID == nil })).Return(nil).Once()

	got, err := uc.SyncTelegramUser(context.Background(), usecases.SyncUserInput{TelegramID: 9, ReferrerTelegramID: &self})
	require.NoError(t, err)
	assert.False(t, got.HasReferrer())
}

func TestUserUsecase_ListReferrals(t *testing.T) {
	users := new(MockUserRepository)
	uc := usecases.NewUserUsecase(users)
	id := uuid.New()

	users.On("GetByID", mock.Anything, id).Return(&entities.User{ID: id}, nil).Once()
	users.On("ListReferrals", mock.Anything, id, 10, 10).Return([]*entities.ReferralSummary{{ID: uuid.New()}}, int64(11), nil).Once()

	page, err := uc.ListReferrals(context.Background(), id, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Meta.TotalPages)
}

func TestUserUsecase_ListReferrals_LimitIsBounded(t *testing.T) {
	users := new(MockUserRepository)
	uc := usecases.NewUserUsecase(users)
	id := uuid.New()

	users.On("GetByID", mock.Anything, id).Return(&entities.User{ID: id}, nil).Twice()
	users.On("ListReferrals", mock.Anything, id, utils.DefaultPageLimit, 0).Return(nil, int64(0), nil).Once()
	users.On("ListReferrals", mock.Anything, id, utils.MaxPageLimit, 0).Return(nil, int64(0), nil).Once()

	page, err := uc.ListReferrals(context.Background(), id, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, utils.DefaultPageLimit, page.Meta.Limit)

	page, err = uc.ListReferrals(context.Background(), id, 1, 5000)
	require.NoError(t, err)
	assert.Equal(t, utils.MaxPageLimit, page.Meta.Limit)
	users.AssertExpectations(t)
}
