package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/internal/infrastructure/models"
)

// TransactionRepository implements the ledger
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger entry; a taken commission key yields ErrAlreadyExists
func (r *TransactionRepository) Create(ctx context.Context, tx *entities.Transaction) error {
	raw, err := entities.EncodeMetadata(tx.Metadata)
	if err != nil {
		return err
	}
	m := &models.Transaction{
		ID:            tx.ID,
		UserID:        tx.UserID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Status:        string(tx.Status),
		Reference:     tx.Reference,
		CommissionKey: tx.CommissionKey,
		CreatedAt:     tx.CreatedAt,
	}
	if raw != nil {
		m.Metadata = null.StringFrom(string(raw))
	}
	return translateCreateError(GetDB(ctx, r.db).Create(m).Error)
}

// ListByUser lists a user's entries newest first, optionally filtered by type
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, txType entities.TransactionType, limit, offset int) ([]*entities.Transaction, int64, error) {
	base := func() *gorm.DB {
		q := GetDB(ctx, r.db).Model(&models.Transaction{}).Where("user_id = ?", userID)
		if txType != "" {
			q = q.Where("type = ?", string(txType))
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base().Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	var rows []models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := toTransactionEntity(&rows[i])
		if err != nil {
			return nil, 0, fmt.Errorf("transaction %s: %w", rows[i].ID, err)
		}
		out = append(out, tx)
	}
	return out, total, nil
}

func toTransactionEntity(m *models.Transaction) (*entities.Transaction, error) {
	var meta entities.Metadata
	if m.Metadata.Valid {
		decoded, err := entities.DecodeMetadata([]byte(m.Metadata.String))
		if err != nil {
			return nil, err
		}
		meta = decoded
	}
	return &entities.Transaction{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          entities.TransactionType(m.Type),
		Amount:        m.Amount,
		Currency:      m.Currency,
		Status:        entities.TransactionStatus(m.Status),
		Reference:     m.Reference,
		Metadata:      meta,
		CommissionKey: m.CommissionKey,
		CreatedAt:     m.CreatedAt,
	}, nil
}
