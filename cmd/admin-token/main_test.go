package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minefactory.backend/internal/config"
	"minefactory.backend/pkg/jwt"
)

func testDeps(out *bytes.Buffer, secret string) adminTokenDeps {
	return adminTokenDeps{
		loadEnv: func() error { return errors.New("no .env") },
		loadCfg: func() *config.Config {
			return &config.Config{JWT: config.JWTConfig{Secret: secret, Expiry: time.Hour, Issuer: "minefactory"}}
		},
		now: func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
		out: out,
	}
}

func tokenFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if v, ok := strings.CutPrefix(line, "TOKEN="); ok {
			return v
		}
	}
	t.Fatalf("no token in output: %s", output)
	return ""
}

func TestRunAdminToken_IssuesAdminToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAdminToken([]string{"-subject", "ops@minefactory"}, testDeps(&out, "secret")))

	assert.Contains(t, out.String(), "subject=ops@minefactory")
	assert.Contains(t, out.String(), "expires_at=2026-03-01T11:00:00Z")

	claims, err := jwt.NewJWTService("secret", time.Hour, "minefactory").ValidateToken(tokenFrom(t, out.String()))
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
	assert.Equal(t, "ops@minefactory", claims.Subject)
}

func TestRunAdminToken_CustomTTL(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAdminToken([]string{"-subject", "ops", "-ttl", "15m"}, testDeps(&out, "secret")))
	assert.Contains(t, out.String(), "expires_at=2026-03-01T10:15:00Z")
}

func TestRunAdminToken_Errors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, runAdminToken(nil, testDeps(&out, "secret")), "--subject is required")
	assert.ErrorContains(t, runAdminToken([]string{"-subject", "ops"}, testDeps(&out, "")), "JWT_SECRET")
	assert.ErrorContains(t, runAdminToken([]string{"-subject", "ops", "-ttl", "-1h"}, testDeps(&out, "secret")), "invalid --ttl")
	assert.Error(t, runAdminToken([]string{"-unknown"}, testDeps(&out, "secret")))
	assert.Empty(t, out.String())
}

func TestMain_ExitsWhenSubjectMissing(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_ADMIN_TOKEN") == "1" {
		os.Args = []string{"admin-token"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsWhenSubjectMissing")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_ADMIN_TOKEN=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail when --subject is missing")
	}
}
