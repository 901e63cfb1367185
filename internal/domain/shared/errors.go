package shared

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the payout core. Callers branch on Code, never on Message.
const (
	CodeNotFound               = "NOT_FOUND"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeValidation             = "VALIDATION_ERROR"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeLockTimeout            = "LOCK_TIMEOUT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so sentinel
// errors match with errors.Is regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Invalid amount")
	ErrCurrencyMismatch    = NewDomainError(CodeCurrencyMismatch, "Currency does not match")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrLockTimeout         = NewDomainError(CodeLockTimeout, "Timed out waiting for owner lock")
)

// NotFound builds a NOT_FOUND error for the named resource
func NotFound(resource string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// PermissionDenied builds a PERMISSION_DENIED error
func PermissionDenied(message string) *DomainError {
	return NewDomainError(CodePermissionDenied, message)
}

// InvalidStateTransition names the current state and the attempted transition
func InvalidStateTransition(current, attempted string) *DomainError {
	return NewDomainError(CodeInvalidStateTransition,
		fmt.Sprintf("Cannot %s payout request in %s status", attempted, current))
}

// InvalidAmount builds an INVALID_AMOUNT error
func InvalidAmount(message string) *DomainError {
	return NewDomainError(CodeInvalidAmount, message)
}

// CurrencyMismatch builds a CURRENCY_MISMATCH error
func CurrencyMismatch(expected, actual string) *DomainError {
	return NewDomainError(CodeCurrencyMismatch,
		fmt.Sprintf("Currency %s does not match balance currency %s", actual, expected))
}

// ValidationError builds a VALIDATION_ERROR error
func ValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// ErrorCode returns the domain error code carried by err, or "" for non-domain errors
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain error code
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
