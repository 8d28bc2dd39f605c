package entities

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositSource records which path credited a deposit
type DepositSource string

const (
	DepositSourceScanner        DepositSource = "scanner"
	DepositSourceReconciliation DepositSource = "reconciliation"
)

// Deposit is an immutable credited on-chain transfer. TxHash is unique.
type Deposit struct {
	ID            uuid.UUID       `json:"id"`
	TxHash        string          `json:"txHash"`
	LogIndex      uint            `json:"logIndex"`
	FromAddress   string          `json:"fromAddress"`
	WalletID      uuid.UUID       `json:"walletId"`
	WalletAddress string          `json:"walletAddress"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BlockNumber   uint64          `json:"blockNumber"`
	Source        DepositSource   `json:"source"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TransferLog is one token Transfer event addressed to a deposit wallet
type TransferLog struct {
	TxHash      string
	LogIndex    uint
	From        string
	To          string
	Amount      *big.Int
	BlockNumber uint64
}

// RegisterDepositInput is the reconciliation request to credit a transfer
// the scanner missed. A zero Amount is resolved from the chain receipt.
type RegisterDepositInput struct {
	WalletID    uuid.UUID       `json:"walletId" binding:"required"`
	TxHash      string          `json:"txHash" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	FromAddress string          `json:"fromAddress"`
	BlockNumber uint64          `json:"blockNumber"`
}
