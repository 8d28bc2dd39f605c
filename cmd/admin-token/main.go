package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"minefactory.backend/internal/config"
	"minefactory.backend/pkg/jwt"
)

type adminTokenDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	now     func() time.Time
	out     io.Writer
}

func defaultAdminTokenDeps() adminTokenDeps {
	return adminTokenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		now:     time.Now,
		out:     os.Stdout,
	}
}

// runAdminToken issues an operator token for the reconciliation API
func runAdminToken(args []string, deps adminTokenDeps) error {
	if deps.loadEnv == nil {
		deps.loadEnv = func() error { return godotenv.Load() }
	}
	if deps.loadCfg == nil {
		deps.loadCfg = config.Load
	}
	if deps.now == nil {
		deps.now = time.Now
	}
	if deps.out == nil {
		deps.out = os.Stdout
	}

	fs := flag.NewFlagSet("admin-token", flag.ContinueOnError)
	subjectFlag := fs.String("subject", "", "operator identity recorded in audit logs (required)")
	ttlFlag := fs.Duration("ttl", 0, "token lifetime (defaults to JWT_EXPIRY)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subjectFlag == "" {
		return errors.New("--subject is required")
	}
	if *ttlFlag < 0 {
		return fmt.Errorf("invalid --ttl: %s", *ttlFlag)
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	ttl := cfg.JWT.Expiry
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	token, err := jwt.NewJWTService(cfg.JWT.Secret, ttl, cfg.JWT.Issuer).GenerateToken(*subjectFlag, jwt.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, _ = fmt.Fprintf(deps.out, "subject=%s\n", *subjectFlag)
	_, _ = fmt.Fprintf(deps.out, "role=%s\n", jwt.RoleAdmin)
	_, _ = fmt.Fprintf(deps.out, "expires_at=%s\n", deps.now().Add(ttl).UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(deps.out, "TOKEN=%s\n", token)
	return nil
}

func main() {
	if err := runAdminToken(os.Args[1:], defaultAdminTokenDeps()); err != nil {
		log.Fatal(err)
	}
}
