package entities

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a per-user deposit address with its scan checkpoint
type Wallet struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"userId"`
	Chain            string    `json:"chain"`
	Address          string    `json:"address"`
	DerivationIndex  uint32    `json:"derivationIndex"`
	LastScannedBlock uint64    `json:"lastScannedBlock"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NextScanBlock is the first block not yet covered by the checkpoint
func (w *Wallet) NextScanBlock() uint64 {
	return w.LastScannedBlock + 1
}

// ResetCheckpointInput is the operator request to move a checkpoint
type ResetCheckpointInput struct {
	Block  *uint64 `json:"block" binding:"required"`
	Reason string  `json:"reason" binding:"required,min=3"`
}
