package dto

import "net/http"

// Error codes exposed at the API boundary. Domain error codes map onto these;
// raw provider and database errors never leave the handler layer.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ErrCodeConcurrentOperation marks a duplicate in-flight attempt; the
	// client should retry with backoff and the same idempotency key.
	ErrCodeConcurrentOperation = "ERR_CONCURRENT_OPERATION"
	// ErrCodeDuplicateRequest marks an idempotency key reused with different
	// parameters. Retrying will not help.
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"

	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeBusinessRule        = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
	ErrCodeInsufficientBalance = "ERR_INSUFFICIENT_BALANCE"
	ErrCodeUnbalancedEntry     = "ERR_UNBALANCED_ENTRY"
	ErrCodeInvalidAccount      = "ERR_INVALID_ACCOUNT"
	ErrCodeInvalidCallback     = "ERR_INVALID_CALLBACK"
	ErrCodeProviderUnavailable = "ERR_PROVIDER_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeConcurrentOperation: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeUnbalancedEntry:     http.StatusUnprocessableEntity,
	ErrCodeInvalidAccount:      http.StatusUnprocessableEntity,

	ErrCodeInvalidCallback:     http.StatusBadRequest,
	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping maps domain error codes to API error codes
var domainCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeBadRequest,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"CONCURRENT_OPERATION": ErrCodeConcurrentOperation,
	"DUPLICATE_REQUEST":    ErrCodeDuplicateRequest,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"INSUFFICIENT_BALANCE": ErrCodeInsufficientBalance,
	"INVALID_METHOD":       ErrCodeBadRequest,
	"INVALID_ACTOR":        ErrCodeUnauthorized,
	"INVALID_ORGANIZATION": ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes with no mapping pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
