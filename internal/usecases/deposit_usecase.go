package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	domainerrors "minefactory.backend/internal/domain/errors"
	"minefactory.backend/internal/domain/repositories"
	"minefactory.backend/internal/infrastructure/metrics"
	"minefactory.backend/pkg/logger"
	"minefactory.backend/pkg/utils"
)

// DepositUsecase credits on-chain deposits exactly once. The unique index on
// the deposit tx hash is the idempotency gate; the existence check in front
// of it only saves a transaction.
type DepositUsecase struct {
	uow         repositories.UnitOfWork
	depositRepo repositories.DepositRepository
	userRepo    repositories.UserRepository
	txRepo      repositories.TransactionRepository
	walletRepo  repositories.WalletRepository
	chain       TransferLookup
	token       entities.DepositToken
	commissions DepositCommissionPayer
	notifier    Notifier
	tasks       TaskDispatcher
}

// NewDepositUsecase creates a new deposit usecase
func NewDepositUsecase(
	uow repositories.UnitOfWork,
	depositRepo repositories.DepositRepository,
	userRepo repositories.UserRepository,
	txRepo repositories.TransactionRepository,
	walletRepo repositories.WalletRepository,
	chain TransferLookup,
	token entities.DepositToken,
	commissions DepositCommissionPayer,
	notifier Notifier,
	tasks TaskDispatcher,
) *DepositUsecase {
	return &DepositUsecase{
		uow:         uow,
		depositRepo: depositRepo,
		userRepo:    userRepo,
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		chain:       chain,
		token:       token,
		commissions: commissions,
		notifier:    notifier,
		tasks:       tasks,
	}
}

// CreditTransfer credits a transfer found by the scanner. The bool is false
// when the transfer was already credited.
func (u *DepositUsecase) CreditTransfer(ctx context.Context, wallet *entities.Wallet, transfer entities.TransferLog) (*entities.Deposit, bool, error) {
	amount := u.token.ToAmount(transfer.Amount)
	if !amount.IsPositive() {
		logger.Debug(ctx, "Ignoring zero-value transfer", zap.String("tx_hash", transfer.TxHash))
		return nil, false, nil
	}

	deposit := &entities.Deposit{
		ID:            utils.GenerateUUIDv7(),
		TxHash:        normalizeTxHash(transfer.TxHash),
		LogIndex:      transfer.LogIndex,
		FromAddress:   entities.NormalizeAddress(transfer.From),
		WalletID:      wallet.ID,
		WalletAddress: entities.NormalizeAddress(wallet.Address),
		UserID:        wallet.UserID,
		Amount:        amount,
		Currency:      u.token.Symbol,
		BlockNumber:   transfer.BlockNumber,
		Source:        entities.DepositSourceScanner,
		CreatedAt:     time.Now(),
	}
	return u.credit(ctx, deposit)
}

// RegisterDeposit credits a transfer reported out of band (reconciliation or
// an admin sweep) under the same idempotency rule as the scanner. On a NoOp
// the already credited record is returned with false.
func (u *DepositUsecase) RegisterDeposit(ctx context.Context, input *entities.RegisterDepositInput) (*entities.Deposit, bool, error) {
	txHash := normalizeTxHash(input.TxHash)
	if !isTxHash(txHash) {
		return nil, false, fmt.Errorf("%w: malformed tx hash", domainerrors.ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = u.token.Symbol
	}
	if currency != u.token.Symbol {
		return nil, false, fmt.Errorf("%w: unsupported currency %s", domainerrors.ErrInvalidInput, input.Currency)
	}
	if input.Amount.IsNegative() {
		return nil, false, fmt.Errorf("%w: amount must be positive", domainerrors.ErrInvalidInput)
	}
	if !u.token.ToAmount(u.token.ToRawUnits(input.Amount)).Equal(input.Amount) {
		return nil, false, fmt.Errorf("%w: amount exceeds %d token decimals", domainerrors.ErrInvalidInput, u.token.Decimals)
	}
	if input.FromAddress != "" && !common.IsHexAddress(input.FromAddress) {
		return nil, false, fmt.Errorf("%w: malformed source address", domainerrors.ErrInvalidInput)
	}

	wallet, err := u.walletRepo.GetByID(ctx, input.WalletID)
	if err != nil {
		return nil, false, err
	}

	// an already credited hash needs no chain lookup
	existing, err := u.depositRepo.GetByTxHash(ctx, txHash)
	switch {
	case err == nil:
		metrics.RecordDeposit(string(entities.DepositSourceReconciliation), "duplicate")
		logger.Debug(ctx, "Deposit already credited", zap.String("tx_hash", txHash))
		return existing, false, nil
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, false, fmt.Errorf("check deposit %s: %w", txHash, err)
	}

	deposit := &entities.Deposit{
		ID:            utils.GenerateUUIDv7(),
		TxHash:        txHash,
		FromAddress:   entities.NormalizeAddress(input.FromAddress),
		WalletID:      wallet.ID,
		WalletAddress: entities.NormalizeAddress(wallet.Address),
		UserID:        wallet.UserID,
		Amount:        input.Amount,
		Currency:      currency,
		BlockNumber:   input.BlockNumber,
		Source:        entities.DepositSourceReconciliation,
		CreatedAt:     time.Now(),
	}

	if !deposit.Amount.IsPositive() {
		if err := u.resolveFromChain(ctx, wallet, deposit); err != nil {
			return nil, false, err
		}
	}

	credited, fresh, err := u.credit(ctx, deposit)
	if err != nil {
		return nil, false, err
	}
	if !fresh {
		existing, err := u.depositRepo.GetByTxHash(ctx, txHash)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return credited, true, nil
}

// IsCredited returns the deposit recorded for txHash or ErrNotFound
func (u *DepositUsecase) IsCredited(ctx context.Context, txHash string) (*entities.Deposit, error) {
	return u.depositRepo.GetByTxHash(ctx, normalizeTxHash(txHash))
}

func (u *DepositUsecase) resolveFromChain(ctx context.Context, wallet *entities.Wallet, deposit *entities.Deposit) error {
	if u.chain == nil {
		return fmt.Errorf("%w: amount is required", domainerrors.ErrInvalidInput)
	}
	transfer, err := u.chain.GetTransferByTxHash(ctx, u.token.Contract, wallet.Address, deposit.TxHash)
	if err != nil {
		return fmt.Errorf("resolve transfer %s: %w", deposit.TxHash, err)
	}
	deposit.Amount = u.token.ToAmount(transfer.Amount)
	deposit.LogIndex = transfer.LogIndex
	deposit.FromAddress = entities.NormalizeAddress(transfer.From)
	deposit.BlockNumber = transfer.BlockNumber
	if !deposit.Amount.IsPositive() {
		return fmt.Errorf("%w: transfer carries no value", domainerrors.ErrInvalidInput)
	}
	return nil
}

func (u *DepositUsecase) credit(ctx context.Context, deposit *entities.Deposit) (*entities.Deposit, bool, error) {
	source := string(deposit.Source)

	exists, err := u.depositRepo.ExistsByTxHash(ctx, deposit.TxHash)
	if err != nil {
		metrics.RecordDeposit(source, "failed")
		return nil, false, fmt.Errorf("check deposit %s: %w", deposit.TxHash, err)
	}
	if exists {
		metrics.RecordDeposit(source, "duplicate")
		logger.Debug(ctx, "Deposit already credited", zap.String("tx_hash", deposit.TxHash))
		return nil, false, nil
	}

	meta, err := entities.NewDepositMetadata(deposit)
	if err != nil {
		return nil, false, err
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.depositRepo.Create(txCtx, deposit); err != nil {
			return err
		}
		if err := u.userRepo.CreditDeposit(txCtx, deposit.UserID, deposit.Amount); err != nil {
			return fmt.Errorf("credit user %s: %w", deposit.UserID, err)
		}
		return u.txRepo.Create(txCtx, &entities.Transaction{
			ID:        utils.GenerateUUIDv7(),
			UserID:    deposit.UserID,
			Type:      entities.TransactionTypeDeposit,
			Amount:    deposit.Amount,
			Currency:  deposit.Currency,
			Status:    entities.TransactionStatusCompleted,
			Reference: null.StringFrom(deposit.TxHash),
			Metadata:  meta,
			CreatedAt: deposit.CreatedAt,
		})
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		metrics.RecordDeposit(source, "duplicate")
		logger.Debug(ctx, "Deposit insert lost the race, treating as processed", zap.String("tx_hash", deposit.TxHash))
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordDeposit(source, "failed")
		return nil, false, fmt.Errorf("credit deposit %s: %w", deposit.TxHash, err)
	}

	metrics.RecordDeposit(source, "credited")
	logger.Info(ctx, "Deposit credited",
		zap.String("tx_hash", deposit.TxHash),
		zap.String("user_id", deposit.UserID.String()),
		zap.String("amount", deposit.Amount.String()),
		zap.String("currency", deposit.Currency),
		zap.Uint64("block", deposit.BlockNumber),
		zap.String("source", source),
	)

	u.dispatchSideEffects(ctx, deposit)
	return deposit, true, nil
}

// dispatchSideEffects queues the commission fan-out and the user message.
// Neither can fail the deposit that was just committed.
func (u *DepositUsecase) dispatchSideEffects(ctx context.Context, deposit *entities.Deposit) {
	if u.tasks == nil {
		return
	}

	if u.commissions != nil {
		input := DepositCommissionInput{
			SourceUserID:  deposit.UserID,
			Amount:        deposit.Amount,
			Currency:      deposit.Currency,
			DepositTxHash: deposit.TxHash,
		}
		if !u.tasks.Submit("commission:deposit:"+deposit.TxHash, func(taskCtx context.Context) error {
			_, err := u.commissions.PayDepositCommissions(taskCtx, input)
			return err
		}) {
			logger.Error(ctx, "Commission fan-out dropped", zap.String("tx_hash", deposit.TxHash))
		}
	}

	if u.notifier != nil {
		message := fmt.Sprintf("Deposit of %s %s credited to your balance.", deposit.Amount.String(), deposit.Currency)
		if !u.tasks.Submit("notify:deposit:"+deposit.TxHash, func(taskCtx context.Context) error {
			return u.notifier.NotifyUser(taskCtx, deposit.UserID, message)
		}) {
			logger.Warn(ctx, "Deposit notification dropped", zap.String("tx_hash", deposit.TxHash))
		}
	}
}

func normalizeTxHash(txHash string) string {
	return strings.ToLower(strings.TrimSpace(txHash))
}

func isTxHash(txHash string) bool {
	b, err := hexutil.Decode(txHash)
	return err == nil && len(b) == common.HashLength
}
