package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/usecases"
	"minefactory.backend/pkg/utils"
)

func newUserRouter(users *userServiceStub, purchases *purchaseServiceStub) *gin.Engine {
	r := newTestRouter()
	h := NewUserHandler(users, purchases)
	r.POST("/users/sync", h.SyncUser)
	r.GET("/users/:id/referrals", h.ListReferrals)
	r.POST("/users/:id/purchases", h.BuyFactory)
	return r
}

func TestUserHandler_SyncUser(t *testing.T) {
	var got usecases.SyncUserInput
	r := newUserRouter(&userServiceStub{
		syncFn: func(_ context.Context, input usecases.SyncUserInput) (*entities.User, error) {
			got = input
			return &entities.User{ID: uuid.New(), TelegramID: input.TelegramID}, nil
		},
	}, nil)

	w := doJSON(r, http.MethodPost, "/users/sync", `{"telegramId":1001,"username":"miner","referrerTelegramId":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), got.TelegramID)
	require.NotNil(t, got.ReferrerTelegramID)
	assert.Equal(t, int64(42), *got.ReferrerTelegramID)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/users/sync", `{"username":"x"}`).Code)
}

func TestUserHandler_ListReferrals(t *testing.T) {
	userID := uuid.New()
	var gotPage, gotLimit int
	r := newUserRouter(&userServiceStub{
		referralsFn: func(_ context.Context, id uuid.UUID, page, limit int) (*usecases.ReferralPage, error) {
			if id != userID {
				return nil, domainerrors.ErrNotFound
			}
			gotPage, gotLimit = page, limit
			return &usecases.ReferralPage{
				Items: []*entities.ReferralSummary{{TelegramID: 7, TotalDeposited: decimal.NewFromInt(100)}},
				Meta:  utils.PageMeta{Page: page, Limit: limit, TotalCount: 1, TotalPages: 1},
			}, nil
		},
	}, nil)

	w := doJSON(r, http.MethodGet, "/users/"+userID.String()+"/referrals?page=2&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, w.Body.String(), `"telegramId":7`)

	doJSON(r, http.MethodGet, "/users/"+userID.String()+"/referrals", "")
	assert.Equal(t, 1, gotPage)
	assert.Equal(t, 20, gotLimit)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/users/"+uuid.NewString()+"/referrals", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/users/x/referrals", "").Code)
}

func TestUserHandler_BuyFactory(t *testing.T) {
	userID := uuid.New()
	r := newUserRouter(nil, &purchaseServiceStub{
		buyFn: func(_ context.Context, input *entities.BuyFactoryInput) (*entities.FactoryPurchase, error) {
			if input.Price.GreaterThan(decimal.NewFromInt(1000)) {
				return nil, domainerrors.ErrInsufficientFunds
			}
			return &entities.FactoryPurchase{UserID: input.UserID, FactoryCode: input.FactoryCode, Price: input.Price}, nil
		},
	})
	path := "/users/" + userID.String() + "/purchases"

	w := doJSON(r, http.MethodPost, path, `{"factoryCode":"basic","price":"100"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"factoryCode":"basic"`)

	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(r, http.MethodPost, path, `{"factoryCode":"mega","price":"5000"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, path, `{"factoryCode":"basic","price":"abc"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, path, `{"price":"10"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/users/x/purchases", `{"factoryCode":"basic","price":"1"}`).Code)
}
