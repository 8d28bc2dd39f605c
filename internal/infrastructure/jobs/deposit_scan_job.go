package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/infrastructure/metrics"
	"minefactory.backend/pkg/logger"
)

// DefaultScanLockKey is the Redis key guarding cross-process scan cycles
const DefaultScanLockKey = "scanner:deposit:lock"

// ChainReader is the chain capability the scanner needs
type ChainReader interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	GetTransferLogs(ctx context.Context, token, recipient string, fromBlock, toBlock uint64) ([]entities.TransferLog, error)
}

// WalletStore lists deposit wallets and persists their checkpoints
type WalletStore interface {
	ListByChain(ctx context.Context, chain string) ([]*entities.Wallet, error)
	AdvanceCheckpoint(ctx context.Context, id uuid.UUID, newBlock uint64) error
}

// DepositCreditor credits one observed transfer exactly once
type DepositCreditor interface {
	CreditTransfer(ctx context.Context, wallet *entities.Wallet, transfer entities.TransferLog) (*entities.Deposit, bool, error)
}

// CycleLock is a cross-process lease. *redis.Lease satisfies it.
type CycleLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// ScanJobConfig tunes the deposit scan loop
type ScanJobConfig struct {
	Chain              string
	TokenContract      string
	Interval           time.Duration
	BatchSize          uint64
	Confirmations      uint64
	Concurrency        int
	MaxWindowsPerCycle int
	WindowDelay        time.Duration
	WalletDelay        time.Duration
	LockKey            string
	LockTTL            time.Duration
}

// CycleReport summarises one scan cycle
type CycleReport struct {
	Height   uint64
	Wallets  int
	Scanned  int
	Failed   int
	Windows  int
	Credited int
}

// DepositScanJob periodically walks every deposit wallet's checkpoint up to
// the chain head and credits the transfers it finds.
type DepositScanJob struct {
	cfg      ScanJobConfig
	chain    ChainReader
	wallets  WalletStore
	creditor DepositCreditor
	lock     CycleLock

	running   atomic.Bool
	scheduler gocron.Scheduler
}

// NewDepositScanJob creates the job. lock may be nil for a single replica.
func NewDepositScanJob(cfg ScanJobConfig, chain ChainReader, wallets WalletStore, creditor DepositCreditor, lock CycleLock) *DepositScanJob {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultScanLockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &DepositScanJob{
		cfg:      cfg,
		chain:    chain,
		wallets:  wallets,
		creditor: creditor,
		lock:     lock,
	}
}

// Start schedules RunCycle every Interval, starting immediately. A tick that
// fires while a cycle is still running is skipped.
func (j *DepositScanJob) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.cfg.Interval),
		gocron.NewTask(func() {
			if _, err := j.RunCycle(ctx); err != nil && !errors.Is(err, domainerrors.ErrCycleInProgress) {
				logger.Error(ctx, "Deposit scan cycle failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName("deposit-scan"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule deposit scan: %w", err)
	}

	j.scheduler = sched
	sched.Start()
	logger.Info(ctx, "Deposit scanner started",
		zap.String("chain", j.cfg.Chain),
		zap.Duration("interval", j.cfg.Interval),
		zap.Uint64("batch_size", j.cfg.BatchSize),
		zap.Int("concurrency", j.cfg.Concurrency),
	)
	return nil
}

// Stop shuts the scheduler down and waits for a running cycle to finish
func (j *DepositScanJob) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}

// RunCycle scans every wallet once. It returns ErrCycleInProgress when
// another cycle holds the in-process flag or the distributed lease.
func (j *DepositScanJob) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !j.running.CompareAndSwap(false, true) {
		metrics.RecordScanCycle("skipped", 0)
		return nil, domainerrors.ErrCycleInProgress
	}
	defer j.running.Store(false)

	if j.lock != nil {
		token, ok, err := j.lock.Acquire(ctx, j.cfg.LockKey, j.cfg.LockTTL)
		if err != nil {
			metrics.RecordScanCycle("failed", 0)
			return nil, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			metrics.RecordScanCycle("skipped", 0)
			return nil, domainerrors.ErrCycleInProgress
		}
		defer func() {
			if err := j.lock.Release(context.WithoutCancel(ctx), j.cfg.LockKey, token); err != nil {
				logger.Warn(ctx, "Failed to release scan lock", zap.Error(err))
			}
		}()
	}

	ctx = logger.WithCycleID(ctx, uuid.NewString())
	started := time.Now()

	report, err := j.scanAll(ctx)
	if err != nil {
		metrics.RecordScanCycle("failed", time.Since(started).Seconds())
		return nil, err
	}

	metrics.RecordScanCycle("completed", time.Since(started).Seconds())
	logger.Info(ctx, "Deposit scan cycle finished",
		zap.Uint64("height", report.Height),
		zap.Int("wallets", report.Wallets),
		zap.Int("scanned", report.Scanned),
		zap.Int("failed", report.Failed),
		zap.Int("windows", report.Windows),
		zap.Int("credited", report.Credited),
		zap.Duration("took", time.Since(started)),
	)
	return report, nil
}

func (j *DepositScanJob) scanAll(ctx context.Context) (*CycleReport, error) {
	head, err := j.chain.CurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain height: %w", err)
	}
	height := uint64(0)
	if head > j.cfg.Confirmations {
		height = head - j.cfg.Confirmations
	}

	wallets, err := j.wallets.ListByChain(ctx, j.cfg.Chain)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	report := &CycleReport{Height: height, Wallets: len(wallets)}
	var (
		mu  sync.Mutex
		lag uint64
	)

	g := new(errgroup.Group)
	g.SetLimit(j.cfg.Concurrency)
	for i, w := range wallets {
		if ctx.Err() != nil {
			break
		}
		wallet := w
		pause := i < len(wallets)-1
		g.Go(func() error {
			res := j.scanWallet(ctx, wallet, height)

			mu.Lock()
			report.Windows += res.windows
			report.Credited += res.credited
			switch {
			case res.err != nil:
				report.Failed++
			case res.windows > 0:
				report.Scanned++
			}
			if height > res.checkpoint && height-res.checkpoint > lag {
				lag = height - res.checkpoint
			}
			mu.Unlock()

			if pause {
				_ = sleepCtx(ctx, j.cfg.WalletDelay)
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.WalletLagBlocks.Set(float64(lag))
	return report, ctx.Err()
}

type walletScanResult struct {
	windows    int
	credited   int
	checkpoint uint64
	err        error
}

// scanWallet advances one wallet window by window. The checkpoint only moves
// past a window once every log in it was credited.
func (j *DepositScanJob) scanWallet(ctx context.Context, wallet *entities.Wallet, height uint64) walletScanResult {
	res := walletScanResult{checkpoint: wallet.LastScannedBlock}
	from := wallet.NextScanBlock()
	if from > height {
		return res
	}

	for from <= height {
		if j.cfg.MaxWindowsPerCycle > 0 && res.windows >= j.cfg.MaxWindowsPerCycle {
			break
		}

		to := from + j.cfg.BatchSize - 1
		if to > height {
			to = height
		}

		credited, err := j.scanWindow(ctx, wallet, from, to)
		res.credited += credited
		if err != nil {
			metrics.RecordScanWindow("failed")
			res.err = err
			level := logger.Error
			if domainerrors.IsRetryable(err) {
				level = logger.Warn
			}
			level(ctx, "Wallet scan aborted for this cycle",
				zap.String("wallet_id", wallet.ID.String()),
				zap.String("address", wallet.Address),
				zap.Uint64("from_block", from),
				zap.Uint64("to_block", to),
				zap.Error(err),
			)
			return res
		}

		metrics.RecordScanWindow("ok")
		res.windows++
		res.checkpoint = to
		wallet.LastScannedBlock = to
		from = to + 1

		if from <= height {
			if err := sleepCtx(ctx, j.cfg.WindowDelay); err != nil {
				res.err = err
				return res
			}
		}
	}
	return res
}

func (j *DepositScanJob) scanWindow(ctx context.Context, wallet *entities.Wallet, from, to uint64) (int, error) {
	logs, err := j.chain.GetTransferLogs(ctx, j.cfg.TokenContract, wallet.Address, from, to)
	if err != nil {
		return 0, fmt.Errorf("get transfer logs %d-%d: %w", from, to, err)
	}

	credited := 0
	for _, l := range logs {
		_, fresh, err := j.creditor.CreditTransfer(ctx, wallet, l)
		if err != nil {
			return credited, fmt.Errorf("credit transfer %s: %w", l.TxHash, err)
		}
		if fresh {
			credited++
		}
	}

	if err := j.wallets.AdvanceCheckpoint(ctx, wallet.ID, to); err != nil {
		return credited, fmt.Errorf("advance checkpoint to %d: %w", to, err)
	}
	return credited, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
