package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	domainerrors "minefactory.backend/internal/domain/errors"
)

// TransactionType classifies ledger entries
type TransactionType string

const (
	TransactionTypeDeposit            TransactionType = "DEPOSIT"
	TransactionTypeReferralCommission TransactionType = "REFERRAL_COMMISSION"
	TransactionTypePurchaseCommission TransactionType = "PURCHASE_COMMISSION"
	TransactionTypePurchase           TransactionType = "PURCHASE"
	TransactionTypeSweep              TransactionType = "SWEEP"
)

// TransactionStatus represents ledger entry status
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// CommissionMode distinguishes the two referral payout policies
type CommissionMode string

const (
	CommissionModePercentage    CommissionMode = "percentage"
	CommissionModeFirstPurchase CommissionMode = "first_purchase"
)

// MetadataKind discriminates the Metadata union on the wire
type MetadataKind string

const (
	MetadataKindDeposit    MetadataKind = "deposit"
	MetadataKindCommission MetadataKind = "commission"
	MetadataKindPurchase   MetadataKind = "purchase"
	MetadataKindSweep      MetadataKind = "sweep"
)

// Metadata is the kind-specific payload attached to a ledger entry
type Metadata interface {
	Kind() MetadataKind
	Validate() error
}

// Transaction is one ledger entry
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"userId"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	Reference     null.String       `json:"reference,omitempty"`
	Metadata      Metadata          `json:"metadata,omitempty"`
	CommissionKey null.String       `json:"-"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// DepositMetadata captures the on-chain reference of a credited deposit
type DepositMetadata struct {
	TxHash        string        `json:"txHash"`
	LogIndex      uint          `json:"logIndex"`
	FromAddress   string        `json:"fromAddress,omitempty"`
	WalletAddress string        `json:"walletAddress"`
	BlockNumber   uint64        `json:"blockNumber"`
	Source        DepositSource `json:"source"`
}

func (DepositMetadata) Kind() MetadataKind { return MetadataKindDeposit }

func (m DepositMetadata) Validate() error {
	if strings.TrimSpace(m.TxHash) == "" {
		return fmt.Errorf("%w: deposit tx hash is required", domainerrors.ErrInvalidMetadata)
	}
	if m.WalletAddress == "" {
		return fmt.Errorf("%w: deposit wallet address is required", domainerrors.ErrInvalidMetadata)
	}
	if m.Source != DepositSourceScanner && m.Source != DepositSourceReconciliation {
		return fmt.Errorf("%w: unknown deposit source %q", domainerrors.ErrInvalidMetadata, m.Source)
	}
	return nil
}

// NewDepositMetadata builds validated deposit metadata
func NewDepositMetadata(d *Deposit) (DepositMetadata, error) {
	m := DepositMetadata{
		TxHash:        d.TxHash,
		LogIndex:      d.LogIndex,
		FromAddress:   d.FromAddress,
		WalletAddress: d.WalletAddress,
		BlockNumber:   d.BlockNumber,
		Source:        d.Source,
	}
	return m, m.Validate()
}

// CommissionMetadata describes one referral payout
type CommissionMetadata struct {
	Mode          CommissionMode  `json:"mode"`
	Level         int             `json:"level"`
	SourceUserID  uuid.UUID       `json:"sourceUserId"`
	SourceAmount  decimal.Decimal `json:"sourceAmount"`
	Percent       decimal.Decimal `json:"percent,omitempty"`
	DepositTxHash string          `json:"depositTxHash,omitempty"`
	PurchaseID    *uuid.UUID      `json:"purchaseId,omitempty"`
}

func (CommissionMetadata) Kind() MetadataKind { return MetadataKindCommission }

func (m CommissionMetadata) Validate() error {
	if m.Level < 1 || m.Level > MaxReferralLevels {
		return fmt.Errorf("%w: commission level %d out of range", domainerrors.ErrInvalidMetadata, m.Level)
	}
	if m.SourceUserID == uuid.Nil {
		return fmt.Errorf("%w: commission source user is required", domainerrors.ErrInvalidMetadata)
	}
	switch m.Mode {
	case CommissionModePercentage:
		if m.DepositTxHash == "" {
			return fmt.Errorf("%w: percentage commission needs a deposit tx hash", domainerrors.ErrInvalidMetadata)
		}
		if !m.Percent.IsPositive() {
			return fmt.Errorf("%w: percentage commission needs a positive rate", domainerrors.ErrInvalidMetadata)
		}
	case CommissionModeFirstPurchase:
		if m.PurchaseID == nil || *m.PurchaseID == uuid.Nil {
			return fmt.Errorf("%w: purchase commission needs a purchase id", domainerrors.ErrInvalidMetadata)
		}
	default:
		return fmt.Errorf("%w: unknown commission mode %q", domainerrors.ErrInvalidMetadata, m.Mode)
	}
	return nil
}

// NewDepositCommissionMetadata builds validated percentage-mode metadata
func NewDepositCommissionMetadata(level int, sourceUserID uuid.UUID, sourceAmount, percent decimal.Decimal, depositTxHash string) (CommissionMetadata, error) {
	m := CommissionMetadata{
		Mode:          CommissionModePercentage,
		Level:         level,
		SourceUserID:  sourceUserID,
		SourceAmount:  sourceAmount,
		Percent:       percent,
		DepositTxHash: depositTxHash,
	}
	return m, m.Validate()
}

// NewPurchaseCommissionMetadata builds validated first-purchase metadata
func NewPurchaseCommissionMetadata(level int, buyerID, purchaseID uuid.UUID, price decimal.Decimal) (CommissionMetadata, error) {
	m := CommissionMetadata{
		Mode:         CommissionModeFirstPurchase,
		Level:        level,
		SourceUserID: buyerID,
		SourceAmount: price,
		PurchaseID:   &purchaseID,
	}
	return m, m.Validate()
}

// PurchaseMetadata describes a factory purchase debit
type PurchaseMetadata struct {
	PurchaseID    uuid.UUID `json:"purchaseId"`
	FactoryCode   string    `json:"factoryCode"`
	FirstPurchase bool      `json:"firstPurchase"`
}

func (PurchaseMetadata) Kind() MetadataKind { return MetadataKindPurchase }

func (m PurchaseMetadata) Validate() error {
	if m.PurchaseID == uuid.Nil || strings.TrimSpace(m.FactoryCode) == "" {
		return fmt.Errorf("%w: purchase id and factory code are required", domainerrors.ErrInvalidMetadata)
	}
	return nil
}

// SweepMetadata describes a treasury sweep recorded by the admin subsystem
type SweepMetadata struct {
	TxHash      string `json:"txHash"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
}

func (SweepMetadata) Kind() MetadataKind { return MetadataKindSweep }

func (m SweepMetadata) Validate() error {
	if m.TxHash == "" || m.FromAddress == "" || m.ToAddress == "" {
		return fmt.Errorf("%w: sweep needs tx hash and both addresses", domainerrors.ErrInvalidMetadata)
	}
	return nil
}

// NewSweepMetadata builds validated sweep metadata with normalised hash and addresses
func NewSweepMetadata(txHash, fromAddress, toAddress string) (SweepMetadata, error) {
	m := SweepMetadata{
		TxHash:      strings.ToLower(strings.TrimSpace(txHash)),
		FromAddress: NormalizeAddress(fromAddress),
		ToAddress:   NormalizeAddress(toAddress),
	}
	return m, m.Validate()
}

type metadataEnvelope struct {
	Kind MetadataKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeMetadata validates m and serialises it with its kind discriminator
func EncodeMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(metadataEnvelope{Kind: m.Kind(), Data: data})
}

// DecodeMetadata restores a Metadata value written by EncodeMetadata
func DecodeMetadata(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env metadataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidMetadata, err)
	}

	var m Metadata
	var err error
	switch env.Kind {
	case MetadataKindDeposit:
		var v DepositMetadata
		err = json.Unmarshal(env.Data, &v)
		m = v
	case MetadataKindCommission:
		var v CommissionMetadata
		err = json.Unmarshal(env.Data, &v)
		m = v
	case MetadataKindPurchase:
		var v PurchaseMetadata
		err = json.Unmarshal(env.Data, &v)
		m = v
	case MetadataKindSweep:
		var v SweepMetadata
		err = json.Unmarshal(env.Data, &v)
		m = v
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domainerrors.ErrInvalidMetadata, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInvalidMetadata, err)
	}
	return m, nil
}

// DepositCommissionKey is the unique key of a percentage payout
func DepositCommissionKey(txHash string, level int) string {
	return fmt.Sprintf("deposit:%s:%d", strings.ToLower(txHash), level)
}

// PurchaseCommissionKey is the unique key of a first-purchase payout
func PurchaseCommissionKey(purchaseID uuid.UUID, level int) string {
	return fmt.Sprintf("purchase:%s:%d", purchaseID, level)
}
