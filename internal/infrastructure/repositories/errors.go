package repositories

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	domainerrors "minefactory.backend/internal/domain/errors"
)

const pqUniqueViolation = "23505"

// isUniqueViolation detects duplicate-key failures from postgres (lib/pq),
// gorm's translated error and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// translateCreateError maps unique violations onto ErrAlreadyExists
func translateCreateError(err error) error {
	if isUniqueViolation(err) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrNotFound
	}
	return err
}
