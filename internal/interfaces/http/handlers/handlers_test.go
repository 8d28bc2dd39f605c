package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/usecases"
)

type depositServiceStub struct {
	isCreditedFn func(ctx context.Context, txHash string) (*entities.Deposit, error)
	registerFn   func(ctx context.Context, input *entities.RegisterDepositInput) (*entities.Deposit, bool, error)
}

func (s *depositServiceStub) IsCredited(ctx context.Context, txHash string) (*entities.Deposit, error) {
	return s.isCreditedFn(ctx, txHash)
}

func (s *depositServiceStub) RegisterDeposit(ctx context.Context, input *entities.RegisterDepositInput) (*entities.Deposit, bool, error) {
	return s.registerFn(ctx, input)
}

type walletServiceStub struct {
	getOrCreateFn func(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
	getFn         func(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	resetFn       func(ctx context.Context, id uuid.UUID, input *entities.ResetCheckpointInput) (*entities.Wallet, error)
}

func (s *walletServiceStub) GetOrCreateDepositWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return s.getOrCreateFn(ctx, userID)
}

func (s *walletServiceStub) GetWallet(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return s.getFn(ctx, id)
}

func (s *walletServiceStub) ResetCheckpoint(ctx context.Context, id uuid.UUID, input *entities.ResetCheckpointInput) (*entities.Wallet, error) {
	return s.resetFn(ctx, id, input)
}

type userServiceStub struct {
	syncFn      func(ctx context.Context, input usecases.SyncUserInput) (*entities.User, error)
	referralsFn func(ctx context.Context, userID uuid.UUID, page, limit int) (*usecases.ReferralPage, error)
}

func (s *userServiceStub) SyncTelegramUser(ctx context.Context, input usecases.SyncUserInput) (*entities.User, error) {
	return s.syncFn(ctx, input)
}

func (s *userServiceStub) ListReferrals(ctx context.Context, userID uuid.UUID, page, limit int) (*usecases.ReferralPage, error) {
	return s.referralsFn(ctx, userID, page, limit)
}

type purchaseServiceStub struct {
	buyFn func(ctx context.Context, input *entities.BuyFactoryInput) (*entities.FactoryPurchase, error)
}

func (s *purchaseServiceStub) BuyFactory(ctx context.Context, input *entities.BuyFactoryInput) (*entities.FactoryPurchase, error) {
	return s.buyFn(ctx, input)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type settingsServiceStub struct {
	getFn    func(ctx context.Context) (*usecases.CommissionSettings, error)
	updateFn func(ctx context.Context, key, value string) error
}

func (s *settingsServiceStub) GetCommissionSettings(ctx context.Context) (*usecases.CommissionSettings, error) {
	return s.getFn(ctx)
}

func (s *settingsServiceStub) UpdateSetting(ctx context.Context, key, value string) error {
	return s.updateFn(ctx, key, value)
}
