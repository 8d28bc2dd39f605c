package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"minefactory.backend/internal/config"
)

var (
	sqlOpen = sql.Open
	dbPing  = func(db *sql.DB) error { return db.Ping() }
)

// NewConnection opens a lib/pq pool and checks it is reachable
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sqlOpen("postgres", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := dbPing(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewGormDB wraps an existing pool in a GORM handle
func NewGormDB(sqlDB *sql.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:          false,
		DisableAutomaticPing: true,
	})
}
