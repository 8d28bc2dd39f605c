package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/interfaces/http/middleware"
	"minefactory.backend/internal/interfaces/http/response"
	"minefactory.backend/internal/usecases"
	"minefactory.backend/pkg/logger"
)

type settingsService interface {
	GetCommissionSettings(ctx context.Context) (*usecases.CommissionSettings, error)
	UpdateSetting(ctx context.Context, key, value string) error
}

// UpdateSettingRequest carries a new setting value
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SettingsHandler exposes the commission settings to operators
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings returns the commission tables
// GET /api/v1/admin/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.GetCommissionSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, settings)
}

// UpdateSetting changes one commission setting; it applies from the next payout
// PUT /api/v1/admin/settings/:key
func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	ctx := c.Request.Context()
	key := c.Param("key")
	if err := h.settings.UpdateSetting(ctx, key, req.Value); err != nil {
		response.Error(c, err)
		return
	}

	operator, _ := middleware.GetOperator(c)
	logger.Info(ctx, "Setting changed by operator", zap.String("operator", operator), zap.String("key", key))
	response.Success(c, http.StatusOK, gin.H{"key": key, "value": req.Value})
}
