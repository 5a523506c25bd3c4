package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance available")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")

	// ErrConcurrentOperation is returned when another attempt with the same
	// idempotency key is still in flight. Callers may retry with backoff.
	ErrConcurrentOperation = NewDomainError("CONCURRENT_OPERATION", "Another attempt of this operation is in progress")

	// ErrDuplicateRequest is returned when an idempotency key is reused for a
	// request whose parameters differ from the original attempt.
	ErrDuplicateRequest = NewDomainError("DUPLICATE_REQUEST", "Idempotency key was already used for a different request")
)
