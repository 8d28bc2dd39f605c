package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minefactory.backend/internal/infrastructure/repositories"
	"minefactory.backend/pkg/jwt"
	"minefactory.backend/pkg/redis"
)

const e2eTxHash = "0x9f2a3b1c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *apiClient) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestApplication_DepositReconciliationFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { redis.SetClient(nil) })

	cfg := baseTestConfig()
	db := repositories.NewTestDB(t)
	app := buildApp(cfg, db, &chainStub{height: 100}, deriverStub{})
	app.queue.Start()

	token, err := jwt.NewJWTService(cfg.JWT.Secret, time.Minute, cfg.JWT.Issuer).GenerateToken("ops", jwt.RoleAdmin)
	require.NoError(t, err)
	api := &apiClient{t: t, router: app.router, token: token}
	anon := &apiClient{t: t, router: app.router}

	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/health", "").Code)
	metricsResp := anon.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, metricsResp.Code)
	assert.Contains(t, metricsResp.Body.String(), "minefactory_tasks_dead_lettered_total")
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodGet, "/api/v1/admin/settings", "").Code)

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/v1/admin/settings/referral_percent_level1", `{"value":"10"}`).Code)

	var referrer, referee struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, api.do(http.MethodPost, "/api/v1/admin/users/sync", `{"telegramId":1,"username":"upline"}`), &referrer)
	decode(t, api.do(http.MethodPost, "/api/v1/admin/users/sync", `{"telegramId":2,"referrerTelegramId":1}`), &referee)
	require.NotEmpty(t, referrer.User.ID)
	require.NotEmpty(t, referee.User.ID)

	var wallet struct {
		Wallet struct {
			ID               string `json:"id"`
			Address          string `json:"address"`
			LastScannedBlock uint64 `json:"lastScannedBlock"`
		} `json:"wallet"`
	}
	decode(t, api.do(http.MethodPost, "/api/v1/admin/users/"+referee.User.ID+"/wallet", ""), &wallet)
	assert.Equal(t, uint64(90), wallet.Wallet.LastScannedBlock)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", wallet.Wallet.Address)

	body := fmt.Sprintf(`{"walletId":%q,"txHash":%q,"amount":"100","blockNumber":95}`, wallet.Wallet.ID, e2eTxHash)
	first := api.do(http.MethodPost, "/api/v1/admin/deposits", body, "Idempotency-Key", "op-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay := api.do(http.MethodPost, "/api/v1/admin/deposits", body, "Idempotency-Key", "op-1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Hit"))

	again := api.do(http.MethodPost, "/api/v1/admin/deposits", body, "Idempotency-Key", "op-2")
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Contains(t, again.Body.String(), `"credited":false`)

	status := api.do(http.MethodGet, "/api/v1/admin/deposits/0x"+strings.ToUpper(e2eTxHash[2:]), "")
	require.Equal(t, http.StatusOK, status.Code)
	assert.Contains(t, status.Body.String(), `"credited":true`)
	status = api.do(http.MethodGet, "/api/v1/admin/deposits/0x"+strings.Repeat("ab", 32), "")
	assert.Contains(t, status.Body.String(), `"credited":false`)

	purchase := api.do(http.MethodPost, "/api/v1/admin/users/"+referee.User.ID+"/purchases", `{"factoryCode":"basic","price":"40"}`)
	require.Equal(t, http.StatusCreated, purchase.Code, purchase.Body.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.queue.Shutdown(shutdownCtx))

	users := repositories.NewUserRepository(db)
	up, err := users.GetByTelegramID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, up.Balance.Equal(decimal.NewFromInt(10)), up.Balance.String())

	down, err := users.GetByTelegramID(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, down.Balance.Equal(decimal.NewFromInt(60)), down.Balance.String())

	referrals := api.do(http.MethodGet, "/api/v1/admin/users/"+referrer.User.ID+"/referrals", "")
	require.Equal(t, http.StatusOK, referrals.Code)
	assert.Contains(t, referrals.Body.String(), `"telegramId":2`)

	letters := api.do(http.MethodGet, "/api/v1/admin/tasks/dead-letters", "")
	require.Equal(t, http.StatusOK, letters.Code)
	assert.Contains(t, letters.Body.String(), `"deadLetters":[]`)
}
