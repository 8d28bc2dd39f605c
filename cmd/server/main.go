package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"minefactory.backend/internal/config"
	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/infrastructure/blockchain"
	"minefactory.backend/internal/infrastructure/datasources/postgres"
	"minefactory.backend/internal/infrastructure/jobs"
	"minefactory.backend/internal/infrastructure/metrics"
	"minefactory.backend/internal/infrastructure/models"
	"minefactory.backend/internal/infrastructure/notifier"
	"minefactory.backend/internal/infrastructure/repositories"
	"minefactory.backend/internal/interfaces/http/handlers"
	"minefactory.backend/internal/interfaces/http/middleware"
	"minefactory.backend/internal/usecases"
	"minefactory.backend/pkg/jwt"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/redis"
	"minefactory.backend/pkg/taskqueue"
)

// chainClient is everything the process needs from the chain node
type chainClient interface {
	jobs.ChainReader
	usecases.TransferLookup
	Close()
}

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		sqlDB, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.NewGormDB(sqlDB)
	}
	migrate = func(db *gorm.DB) error {
		return db.AutoMigrate(models.All()...)
	}
	dialChain = func(ctx context.Context, cfg blockchain.EVMClientConfig) (chainClient, error) {
		return blockchain.NewEVMClient(ctx, cfg)
	}
	newDeriver = func(secret, passphrase string) (usecases.AddressDeriver, error) {
		return blockchain.NewHDWallet(secret, passphrase)
	}
	newBotAPI = func(token string) (notifier.MessageSender, error) {
		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return nil, err
		}
		return bot, nil
	}
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runMainProcess(ctx); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess(ctx context.Context) error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	initLog(cfg.Server.Env)
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "Invalid configuration", zap.Error(err))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	chain, err := dialChain(ctx, blockchain.EVMClientConfig{
		RPCURL:    cfg.Blockchain.RPCURL,
		Timeout:   cfg.Scanner.RPCTimeout,
		RateLimit: cfg.Scanner.RPCRateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s rpc: %w", cfg.Blockchain.Chain, err)
	}
	defer chain.Close()

	deriver, err := newDeriver(cfg.Blockchain.HDMnemonic, cfg.Blockchain.HDPassphrase)
	if err != nil {
		return fmt.Errorf("failed to load hd wallet: %w", err)
	}

	app := buildApp(cfg, db, chain, deriver)
	app.queue.Start()

	if err := app.scanJob.Start(ctx); err != nil {
		_ = app.queue.Shutdown(context.Background())
		return fmt.Errorf("failed to start deposit scanner: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Mine factory backend starting", zap.String("port", cfg.Server.Port))
		if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutting down")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("failed to start server: %w", err)
		}
	}

	app.shutdown(srv)
	return runErr
}

type application struct {
	router  *gin.Engine
	scanJob *jobs.DepositScanJob
	queue   *taskqueue.Queue
}

func buildApp(cfg *config.Config, db *gorm.DB, chain chainClient, deriver usecases.AddressDeriver) *application {
	token := entities.DepositToken{
		Chain:    cfg.Blockchain.Chain,
		Symbol:   cfg.Blockchain.Currency,
		Contract: cfg.Blockchain.USDTContract,
		Decimals: int32(cfg.Blockchain.TokenDecimals),
	}

	userRepo := repositories.NewUserRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	depositRepo := repositories.NewDepositRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	purchaseRepo := repositories.NewPurchaseRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	uow := repositories.NewUnitOfWork(db)

	deadLetters := taskqueue.NewRedisSink(cfg.Tasks.DeadLetterHistory)
	queue := taskqueue.New(taskqueue.Config{
		Workers:     cfg.Tasks.Workers,
		Size:        cfg.Tasks.QueueSize,
		TaskTimeout: cfg.Tasks.Timeout,
	}, meteredSink{next: deadLetters})

	notify := newNotifier(cfg.Telegram, userRepo)

	commissionUsecase := usecases.NewCommissionUsecase(uow, userRepo, txRepo, settingsRepo, notify, queue)
	depositUsecase := usecases.NewDepositUsecase(uow, depositRepo, userRepo, txRepo, walletRepo, chain, token, commissionUsecase, notify, queue)
	walletUsecase := usecases.NewWalletUsecase(walletRepo, userRepo, deriver, chain, cfg.Blockchain.Chain, cfg.Blockchain.InitialLookbackBlocks)
	purchaseUsecase := usecases.NewPurchaseUsecase(uow, userRepo, purchaseRepo, txRepo, commissionUsecase, queue, cfg.Blockchain.Currency)
	userUsecase := usecases.NewUserUsecase(userRepo)
	settingsUsecase := usecases.NewSettingsUsecase(settingsRepo)

	scanJob := jobs.NewDepositScanJob(jobs.ScanJobConfig{
		Chain:              cfg.Blockchain.Chain,
		TokenContract:      cfg.Blockchain.USDTContract,
		Interval:           cfg.Scanner.Interval,
		BatchSize:          cfg.Scanner.BatchSize,
		Confirmations:      cfg.Scanner.Confirmations,
		Concurrency:        cfg.Scanner.Concurrency,
		MaxWindowsPerCycle: cfg.Scanner.MaxWindowsPerCycle,
		WindowDelay:        cfg.Scanner.WindowDelay,
		WalletDelay:        cfg.Scanner.WalletDelay,
		LockTTL:            cfg.Scanner.LockTTL,
	}, chain, walletRepo, depositUsecase, redis.NewLease())

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerHealthRoute(r, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		depositHandler:  handlers.NewDepositHandler(depositUsecase),
		walletHandler:   handlers.NewWalletHandler(walletUsecase),
		userHandler:     handlers.NewUserHandler(userUsecase, purchaseUsecase),
		settingsHandler: handlers.NewSettingsHandler(settingsUsecase),
		taskHandler:     handlers.NewTaskHandler(deadLetters, queue),
		authMiddleware:  middleware.AuthMiddleware(jwtService),
	})

	return &application{router: r, scanJob: scanJob, queue: queue}
}

func newNotifier(cfg config.TelegramConfig, users notifier.UserLookup) usecases.Notifier {
	if cfg.BotToken == "" {
		logger.Warn(context.Background(), "TELEGRAM_BOT_TOKEN not set, notifications are logged only")
		return notifier.LogNotifier{}
	}
	bot, err := newBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error(context.Background(), "Telegram bot unavailable, notifications are logged only", zap.Error(err))
		return notifier.LogNotifier{}
	}
	return notifier.NewTelegramNotifier(bot, users)
}

func (a *application) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "HTTP server shutdown", zap.Error(err))
	}
	if err := a.scanJob.Stop(); err != nil {
		logger.Warn(ctx, "Deposit scanner shutdown", zap.Error(err))
	}
	if err := a.queue.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Task queue did not drain", zap.Int("pending", a.queue.Pending()), zap.Error(err))
	}
}

// meteredSink counts dead letters before storing them
type meteredSink struct {
	next taskqueue.DeadLetterSink
}

func (s meteredSink) Record(ctx context.Context, letter taskqueue.DeadLetter) {
	metrics.TasksDeadLettered.Inc()
	s.next.Record(ctx, letter)
}
