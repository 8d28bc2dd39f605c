package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens an isolated in-memory sqlite database with the full schema.
// Exported for integration tests in other packages.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	CreateSchema(t, db)
	return db
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

// CreateSchema creates every table used by the deposit pipeline
func CreateSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	createUserTable(t, db)
	createWalletTable(t, db)
	createDepositTable(t, db)
	createTransactionTable(t, db)
	createPurchaseTable(t, db)
	createSettingsTable(t, db)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		telegram_id INTEGER NOT NULL UNIQUE,
		username TEXT,
		referrer_id TEXT,
		balance NUMERIC NOT NULL DEFAULT 0,
		total_deposited NUMERIC NOT NULL DEFAULT 0,
		total_commission NUMERIC NOT NULL DEFAULT 0,
		total_spent NUMERIC NOT NULL DEFAULT 0,
		purchase_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createWalletTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE deposit_wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		chain TEXT NOT NULL,
		address TEXT NOT NULL,
		derivation_index INTEGER NOT NULL,
		last_scanned_block INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_deposit_wallets_user_chain ON deposit_wallets(user_id, chain);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_deposit_wallets_chain_address ON deposit_wallets(chain, address);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_deposit_wallets_chain_index ON deposit_wallets(chain, derivation_index);`)
}

func createDepositTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE deposits (
		id TEXT PRIMARY KEY,
		tx_hash TEXT NOT NULL,
		log_index INTEGER NOT NULL DEFAULT 0,
		from_address TEXT,
		wallet_id TEXT NOT NULL,
		wallet_address TEXT NOT NULL,
		user_id TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		block_number INTEGER NOT NULL,
		source TEXT NOT NULL,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_deposits_tx_hash ON deposits(tx_hash);`)
}

func createTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		reference TEXT,
		metadata TEXT,
		commission_key TEXT,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_transactions_commission_key ON transactions(commission_key);`)
}

func createPurchaseTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE factory_purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		factory_code TEXT NOT NULL,
		price NUMERIC NOT NULL,
		created_at DATETIME
	);`)
}

func createSettingsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME
	);`)
}
