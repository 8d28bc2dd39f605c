package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/response"
)

type walletService interface {
	GetOrCreateDepositWallet(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	ResetCheckpoint(ctx context.Context, walletID uuid.UUID, input *entities.ResetCheckpointInput) (*entities.Wallet, error)
}

// WalletHandler handles deposit wallet endpoints
type WalletHandler struct {
	wallets walletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(wallets walletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetDepositWallet returns the user's deposit address, deriving it on first use
// POST /api/v1/admin/users/:id/wallet
func (h *WalletHandler) GetDepositWallet(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid user ID"))
		return
	}

	wallet, err := h.wallets.GetOrCreateDepositWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": wallet})
}

// GetWallet returns a wallet with its scan checkpoint
// GET /api/v1/admin/wallets/:id
func (h *WalletHandler) GetWallet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid wallet ID"))
		return
	}

	wallet, err := h.wallets.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": wallet})
}

// ResetCheckpoint moves a wallet's scan checkpoint
// POST /api/v1/admin/wallets/:id/checkpoint
func (h *WalletHandler) ResetCheckpoint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid wallet ID"))
		return
	}

	var input entities.ResetCheckpointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	wallet, err := h.wallets.ResetCheckpoint(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": wallet})
}
