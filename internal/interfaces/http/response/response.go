package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "minefactory.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps err onto its HTTP status and sends the error envelope
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)
	if appErr == nil {
		appErr = domainerrors.InternalServerError("unknown error")
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Abort sends the error envelope and stops the handler chain
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
