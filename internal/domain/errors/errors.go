package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound              = errors.New("resource not found")
	ErrAlreadyExists         = errors.New("resource already exists")
	ErrInvalidInput          = errors.New("invalid input")
	ErrBadRequest            = errors.New("bad request")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrTokenExpired          = errors.New("token expired")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrUnsupportedChain      = errors.New("unsupported chain")
	ErrCheckpointNotAdvanced = errors.New("checkpoint not advanced")
	ErrCycleInProgress       = errors.New("scan cycle already in progress")
	ErrInvalidMetadata       = errors.New("invalid transaction metadata")
)

// Stable error codes returned to API clients
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInternalError = "INTERNAL_ERROR"
)

// RetryableChainError wraps a chain RPC failure (timeout, transport error,
// rate limiting). The scanner aborts the wallet and retries next cycle.
type RetryableChainError struct {
	Op  string
	Err error
}

func (e *RetryableChainError) Error() string {
	return fmt.Sprintf("chain %s: %v", e.Op, e.Err)
}

func (e *RetryableChainError) Unwrap() error {
	return e.Err
}

// NewRetryableChainError wraps err for operation op
func NewRetryableChainError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RetryableChainError{Op: op, Err: err}
}

// IsRetryable reports whether err carries a RetryableChainError
func IsRetryable(err error) bool {
	var rce *RetryableChainError
	return errors.As(err, &rce)
}

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

func InternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, nil)
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

// FromError maps domain sentinels onto an AppError for HTTP responses
func FromError(err error) *AppError {
	var appErr *AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, err.Error(), err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidMetadata), errors.Is(err, ErrUnsupportedChain):
		return NewAppError(http.StatusBadRequest, CodeInvalidInput, err.Error(), err)
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrCheckpointNotAdvanced), errors.Is(err, ErrCycleInProgress):
		return NewAppError(http.StatusConflict, CodeConflict, err.Error(), err)
	case errors.Is(err, ErrInsufficientFunds):
		return NewAppError(http.StatusUnprocessableEntity, CodeBadRequest, err.Error(), err)
	case IsRetryable(err):
		return NewAppError(http.StatusBadGateway, CodeInternalError, "chain unavailable", err)
	default:
		return InternalError(err)
	}
}
