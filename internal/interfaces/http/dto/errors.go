package dto

import (
	"net/http"

	"github.com/propertyhub/backend/internal/domain/shared"
)

// Transport-only error codes. Domain codes come from the shared package.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound         = shared.CodeNotFound
	ErrCodeValidation       = shared.CodeValidation
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:               http.StatusNotFound,
	shared.CodePermissionDenied:       http.StatusForbidden,
	shared.CodeInvalidStateTransition: http.StatusConflict,
	shared.CodeInvalidAmount:          http.StatusUnprocessableEntity,
	shared.CodeCurrencyMismatch:       http.StatusUnprocessableEntity,
	shared.CodeValidation:             http.StatusBadRequest,
	shared.CodeConcurrencyConflict:    http.StatusConflict,
	shared.CodeLockTimeout:            http.StatusServiceUnavailable,

	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
