package usecases_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/usecases"
)

// MockUnitOfWork runs fn inline
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

type lockedCtxKey struct{}

// WithLock tags ctx so tests can assert a read was made under a row lock
func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	return context.WithValue(ctx, lockedCtxKey{}, true)
}

func lockedCtx() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		locked, _ := ctx.Value(lockedCtxKey{}).(bool)
		return locked
	})
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) CreditDeposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *MockUserRepository) CreditCommission(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *MockUserRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return m.Called(ctx, id, amount).Error(0)
}

func (m *MockUserRepository) ListReferrals(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]*entities.ReferralSummary, int64, error) {
	args := m.Called(ctx, referrerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.ReferralSummary), args.Get(1).(int64), args.Error(2)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	return m.Called(ctx, wallet).Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserAndChain(ctx context.Context, userID uuid.UUID, chain string) (*entities.Wallet, error) {
	args := m.Called(ctx, userID, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ListByChain(ctx context.Context, chain string) ([]*entities.Wallet, error) {
	args := m.Called(ctx, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) NextDerivationIndex(ctx context.Context, chain string) (uint32, error) {
	args := m.Called(ctx, chain)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *MockWalletRepository) AdvanceCheckpoint(ctx context.Context, id uuid.UUID, newBlock uint64) error {
	return m.Called(ctx, id, newBlock).Error(0)
}

func (m *MockWalletRepository) ResetCheckpoint(ctx context.Context, id uuid.UUID, block uint64) error {
	return m.Called(ctx, id, block).Error(0)
}

type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *entities.Deposit) error {
	return m.Called(ctx, deposit).Error(0)
}

func (m *MockDepositRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.Deposit, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Deposit), args.Error(1)
}

func (m *MockDepositRepository) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	args := m.Called(ctx, txHash)
	return args.Bool(0), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, txType entities.TransactionType, limit, offset int) ([]*entities.Transaction, int64, error) {
	args := m.Called(ctx, userID, txType, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetReferralPercentages(ctx context.Context) (entities.ReferralPercentages, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.ReferralPercentages), args.Error(1)
}

func (m *MockSettingsRepository) GetPurchaseCommissionAmounts(ctx context.Context) (entities.PurchaseCommissionAmounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.PurchaseCommissionAmounts), args.Error(1)
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *entities.FactoryPurchase) error {
	return m.Called(ctx, purchase).Error(0)
}

type MockCommissionPayer struct {
	mock.Mock
}

func (m *MockCommissionPayer) PayDepositCommissions(ctx context.Context, input usecases.DepositCommissionInput) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

func (m *MockCommissionPayer) PayFirstPurchaseCommissions(ctx context.Context, input usecases.PurchaseCommissionInput) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, message string) error {
	return m.Called(ctx, userID, message).Error(0)
}

type MockChain struct {
	mock.Mock
}

func (m *MockChain) CurrentHeight(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChain) GetTransferByTxHash(ctx context.Context, token, recipient, txHash string) (*entities.TransferLog, error) {
	args := m.Called(ctx, token, recipient, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransferLog), args.Error(1)
}

type MockDeriver struct {
	mock.Mock
}

func (m *MockDeriver) DeriveAddress(index uint32) (string, error) {
	args := m.Called(index)
	return args.String(0), args.Error(1)
}

// inlineDispatcher runs tasks synchronously and keeps their names and errors
type inlineDispatcher struct {
	mu     sync.Mutex
	names  []string
	errs   []error
	reject bool
}

func (d *inlineDispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	if d.reject {
		return false
	}
	err := fn(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	return true
}

func (d *inlineDispatcher) submitted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.names...)
}
