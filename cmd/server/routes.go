package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minefactory.backend/internal/interfaces/http/handlers"
	"minefactory.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "minefactory-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	depositHandler  *handlers.DepositHandler
	walletHandler   *handlers.WalletHandler
	userHandler     *handlers.UserHandler
	settingsHandler *handlers.SettingsHandler
	taskHandler     *handlers.TaskHandler
	authMiddleware  gin.HandlerFunc
}

func registerHealthRoute(r *gin.Engine, ping func(ctx context.Context) error) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if ping != nil {
			if err := ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")

	admin := v1.Group("/admin")
	admin.Use(d.authMiddleware, middleware.RequireAdmin())
	{
		admin.GET("/deposits/:txHash", d.depositHandler.GetDeposit)
		admin.POST("/deposits", middleware.IdempotencyMiddleware(), d.depositHandler.RegisterDeposit)

		admin.GET("/wallets/:id", d.walletHandler.GetWallet)
		admin.POST("/wallets/:id/checkpoint", d.walletHandler.ResetCheckpoint)

		admin.POST("/users/sync", d.userHandler.SyncUser)
		admin.POST("/users/:id/wallet", d.walletHandler.GetDepositWallet)
		admin.GET("/users/:id/referrals", d.userHandler.ListReferrals)
		admin.POST("/users/:id/purchases", middleware.IdempotencyMiddleware(), d.userHandler.BuyFactory)

		admin.GET("/settings", d.settingsHandler.GetSettings)
		admin.PUT("/settings/:key", d.settingsHandler.UpdateSetting)

		admin.GET("/tasks/dead-letters", d.taskHandler.ListDeadLetters)
	}
}
