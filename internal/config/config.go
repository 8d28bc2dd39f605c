package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Scanner    ScannerConfig
	Tasks      TasksConfig
	Telegram   TelegramConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds the operator token settings for the reconciliation API
type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// BlockchainConfig holds chain access and deposit wallet derivation settings
type BlockchainConfig struct {
	Chain                 string
	RPCURL                string
	USDTContract          string
	TokenDecimals         int
	Currency              string
	HDMnemonic            string
	HDPassphrase          string
	InitialLookbackBlocks uint64
}

// ScannerConfig tunes the deposit scan loop
type ScannerConfig struct {
	Interval           time.Duration
	BatchSize          uint64
	Confirmations      uint64
	Concurrency        int
	MaxWindowsPerCycle int
	WindowDelay        time.Duration
	WalletDelay        time.Duration
	RPCTimeout         time.Duration
	RPCRateLimit       float64
	LockTTL            time.Duration
}

// TasksConfig tunes the background side-effect queue
type TasksConfig struct {
	Workers           int
	QueueSize         int
	Timeout           time.Duration
	DeadLetterHistory int64
}

// TelegramConfig holds the bot used for user notifications
type TelegramConfig struct {
	BotToken string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "minefactory"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 12*time.Hour),
			Issuer: getEnv("JWT_ISSUER", "minefactory"),
		},
		Blockchain: BlockchainConfig{
			Chain:                 strings.ToLower(getEnv("DEPOSIT_CHAIN", "bsc")),
			RPCURL:                getEnv("BSC_RPC_URL", ""),
			USDTContract:          getEnv("BSC_USDT_CONTRACT", "0x55d398326f99059fF775485246999027B3197955"),
			TokenDecimals:         getEnvAsInt("BSC_USDT_DECIMALS", 18),
			Currency:              getEnv("DEPOSIT_CURRENCY", "USDT"),
			HDMnemonic:            getEnv("HD_WALLET_MNEMONIC", ""),
			HDPassphrase:          getEnv("HD_WALLET_PASSPHRASE", ""),
			InitialLookbackBlocks: getEnvAsUint64("WALLET_INITIAL_LOOKBACK_BLOCKS", 10),
		},
		Scanner: ScannerConfig{
			Interval:           getEnvAsDuration("SCAN_INTERVAL", 60*time.Second),
			BatchSize:          getEnvAsUint64("SCAN_BATCH_SIZE", 2000),
			Confirmations:      getEnvAsUint64("SCAN_CONFIRMATIONS", 0),
			Concurrency:        getEnvAsInt("SCAN_CONCURRENCY", 1),
			MaxWindowsPerCycle: getEnvAsInt("SCAN_MAX_WINDOWS_PER_CYCLE", 0),
			WindowDelay:        getEnvAsDuration("SCAN_WINDOW_DELAY", 200*time.Millisecond),
			WalletDelay:        getEnvAsDuration("SCAN_WALLET_DELAY", 500*time.Millisecond),
			RPCTimeout:         getEnvAsDuration("SCAN_RPC_TIMEOUT", 15*time.Second),
			RPCRateLimit:       getEnvAsFloat("SCAN_RPC_RATE_LIMIT", 5),
			LockTTL:            getEnvAsDuration("SCAN_LOCK_TTL", 10*time.Minute),
		},
		Tasks: TasksConfig{
			Workers:           getEnvAsInt("TASK_WORKERS", 4),
			QueueSize:         getEnvAsInt("TASK_QUEUE_SIZE", 1000),
			Timeout:           getEnvAsDuration("TASK_TIMEOUT", 30*time.Second),
			DeadLetterHistory: int64(getEnvAsInt("TASK_DEADLETTER_HISTORY", 1000)),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		},
	}
}

// Validate reports missing secrets and unusable settings. The scanner must
// not start when it fails.
func (c *Config) Validate() error {
	var errs []error
	if c.Blockchain.RPCURL == "" {
		errs = append(errs, errors.New("BSC_RPC_URL is required"))
	}
	if c.Blockchain.USDTContract == "" {
		errs = append(errs, errors.New("BSC_USDT_CONTRACT is required"))
	}
	if c.Blockchain.HDMnemonic == "" {
		errs = append(errs, errors.New("HD_WALLET_MNEMONIC is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Scanner.BatchSize == 0 {
		errs = append(errs, errors.New("SCAN_BATCH_SIZE must be positive"))
	}
	if c.Scanner.Interval <= 0 {
		errs = append(errs, errors.New("SCAN_INTERVAL must be positive"))
	}
	if c.Blockchain.TokenDecimals < 0 || c.Blockchain.TokenDecimals > 36 {
		errs = append(errs, fmt.Errorf("BSC_USDT_DECIMALS out of range: %d", c.Blockchain.TokenDecimals))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
