package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/internal/usecases"
)

type userService interface {
	SyncTelegramUser(ctx context.Context, input usecases.SyncUserInput) (*entities.User, error)
	ListReferrals(ctx context.Context, userID uuid.UUID, page, limit int) (*usecases.ReferralPage, error)
}

type purchaseService interface {
	BuyFactory(ctx context.Context, input *entities.BuyFactoryInput) (*entities.FactoryPurchase, error)
}

// SyncUserRequest is the bot's view of a Telegram account
type SyncUserRequest struct {
	TelegramID         int64  `json:"telegramId" binding:"required"`
	Username           string `json:"username"`
	ReferrerTelegramID *int64 `json:"referrerTelegramId"`
}

// BuyFactoryRequest is a purchase made from the bot
type BuyFactoryRequest struct {
	FactoryCode string `json:"factoryCode" binding:"required"`
	Price       string `json:"price" binding:"required"`
}

// UserHandler handles player account endpoints used by the bot
type UserHandler struct {
	users     userService
	purchases purchaseService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users userService, purchases purchaseService) *UserHandler {
	return &UserHandler{users: users, purchases: purchases}
}

// SyncUser creates or refreshes a player and binds the referrer once
// POST /api/v1/admin/users/sync
func (h *UserHandler) SyncUser(c *gin.Context) {
	var req SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	user, err := h.users.SyncTelegramUser(c.Request.Context(), usecases.SyncUserInput{
		TelegramID:         req.TelegramID,
		Username:           req.Username,
		ReferrerTelegramID: req.ReferrerTelegramID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ListReferrals lists a user's direct referrals
// GET /api/v1/admin/users/:id/referrals?page=1&limit=20
func (h *UserHandler) ListReferrals(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid user ID"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.users.ListReferrals(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// BuyFactory debits the user and records a factory purchase
// POST /api/v1/admin/users/:id/purchases
func (h *UserHandler) BuyFactory(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid user ID"))
		return
	}

	var req BuyFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid price"))
		return
	}

	purchase, err := h.purchases.BuyFactory(c.Request.Context(), &entities.BuyFactoryInput{
		UserID:      userID,
		FactoryCode: req.FactoryCode,
		Price:       price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"purchase": purchase})
}
