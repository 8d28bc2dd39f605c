package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/middleware"
	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/pkg/logger"
)

type depositService interface {
	IsCredited(ctx context.Context, txHash string) (*entities.Deposit, error)
	RegisterDeposit(ctx context.Context, input *entities.RegisterDepositInput) (*entities.Deposit, bool, error)
}

// DepositHandler serves the reconciliation endpoints for missed deposits
type DepositHandler struct {
	deposits depositService
}

// NewDepositHandler creates a new deposit handler
func NewDepositHandler(deposits depositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// GetDeposit reports whether a transaction hash has been credited
// GET /api/v1/admin/deposits/:txHash
func (h *DepositHandler) GetDeposit(c *gin.Context) {
	deposit, err := h.deposits.IsCredited(c.Request.Context(), c.Param("txHash"))
	if errors.Is(err, domainerrors.ErrNotFound) {
		response.Success(c, http.StatusOK, gin.H{"credited": false})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"credited": true, "deposit": deposit})
}

// RegisterDeposit credits a transfer the scanner missed. Replaying an
// already credited hash returns the existing record with 200.
// POST /api/v1/admin/deposits
func (h *DepositHandler) RegisterDeposit(c *gin.Context) {
	var input entities.RegisterDepositInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	deposit, credited, err := h.deposits.RegisterDeposit(ctx, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	operator, _ := middleware.GetOperator(c)
	logger.Info(ctx, "Deposit registered by operator",
		zap.String("operator", operator),
		zap.String("tx_hash", deposit.TxHash),
		zap.Bool("credited", credited),
	)

	status := http.StatusOK
	if credited {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"credited": credited, "deposit": deposit})
}
