package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrInvalidStateTransition indicates a logic or provider-ordering bug.
	// It is surfaced and logged, never auto-corrected.
	ErrInvalidStateTransition = errors.New("payment: invalid movement state transition")
	// ErrAmountMismatch is returned when a callback reports a different amount
	// than the movement was created for
	ErrAmountMismatch = errors.New("payment: callback amount does not match movement")
	// ErrProviderUnavailable marks a transient provider failure. The
	// reconciliation job retries it with backoff; synchronous callers do not.
	ErrProviderUnavailable = errors.New("payment: provider temporarily unavailable")
	// ErrInvalidMovementAmount is returned when a movement amount is not positive
	ErrInvalidMovementAmount = errors.New("payment: movement amount must be positive")
)

// Status is the lifecycle state of a money movement
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusExpired  Status = "EXPIRED"
	StatusRefunded Status = "REFUNDED"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusExpired, StatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsFinal returns true for terminal states
func (s Status) IsFinal() bool {
	return s != StatusPending
}

// CanTransitionTo returns true if the move from s to target is legal.
// pending may settle, fail or expire; success may only be refunded;
// failed, expired and refunded are dead ends.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusSuccess || target == StatusFailed || target == StatusExpired
	case StatusSuccess:
		return target == StatusRefunded
	default:
		return false
	}
}

// MovementType classifies the business event behind a movement
type MovementType string

const (
	MovementRetailSale        MovementType = "RETAIL_SALE"
	MovementLoanDisbursement  MovementType = "LOAN_DISBURSEMENT"
	MovementLoanRepayment     MovementType = "LOAN_REPAYMENT"
	MovementSavingsDeposit    MovementType = "SAVINGS_DEPOSIT"
	MovementSavingsWithdrawal MovementType = "SAVINGS_WITHDRAWAL"
	MovementPPOBPurchase      MovementType = "PPOB_PURCHASE"
)

// Method is how the movement settles
type Method string

const (
	MethodCash           Method = "CASH"
	MethodSavingsBalance Method = "SAVINGS_BALANCE"
	MethodQRIS           Method = "QRIS"
	MethodVirtualAccount Method = "VIRTUAL_ACCOUNT"
)

// IsValid returns true if the method is valid
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodSavingsBalance, MethodQRIS, MethodVirtualAccount:
		return true
	default:
		return false
	}
}

// IsExternal returns true for methods settled through a payment provider
func (m Method) IsExternal() bool {
	return m == MethodQRIS || m == MethodVirtualAccount
}

// Movement tracks one payment or transfer instance through its lifecycle,
// separate from the journal entry it eventually produces. Exactly one
// movement exists per business reference; retries resolve to the same record.
type Movement struct {
	shared.OrgAggregateRoot
	Type           MovementType
	ReferenceType  string
	ReferenceID    string
	Method         Method
	Provider       string
	AmountMinor    int64
	Status         Status
	ExternalID     string
	ExpiresAt      *time.Time
	WebhookPayload []byte
	FailureReason  string
	SettledAt      *time.Time
}

// NewMovement creates a pending movement for a business reference
func NewMovement(organizationID uuid.UUID, movementType MovementType, referenceType, referenceID string, method Method, amountMinor int64) (*Movement, error) {
	if amountMinor <= 0 {
		return nil, ErrInvalidMovementAmount
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}
	return &Movement{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Type:             movementType,
		ReferenceType:    referenceType,
		ReferenceID:      referenceID,
		Method:           method,
		AmountMinor:      amountMinor,
		Status:           StatusPending,
	}, nil
}

// AttachIntent records the provider-side identity of an external movement
func (m *Movement) AttachIntent(provider, externalID string, expiresAt time.Time) {
	m.Provider = provider
	m.ExternalID = externalID
	m.ExpiresAt = &expiresAt
}

// transition moves the status, rejecting illegal edges
func (m *Movement) transition(target Status) error {
	if !m.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, m.Status, target)
	}
	m.Status = target
	return nil
}

// MarkSuccess settles the movement
func (m *Movement) MarkSuccess(now time.Time) error {
	if err := m.transition(StatusSuccess); err != nil {
		return err
	}
	m.SettledAt = &now
	return nil
}

// MarkFailed records a definitive failure
func (m *Movement) MarkFailed(reason string) error {
	if err := m.transition(StatusFailed); err != nil {
		return err
	}
	m.FailureReason = reason
	return nil
}

// MarkExpired closes a movement whose window elapsed without a callback
func (m *Movement) MarkExpired() error {
	return m.transition(StatusExpired)
}

// MarkRefunded reverses a settled movement. Explicit reversal only.
func (m *Movement) MarkRefunded() error {
	return m.transition(StatusRefunded)
}

// IsExpired returns true when a pending movement has outlived its window
func (m *Movement) IsExpired(now time.Time) bool {
	return m.Status == StatusPending && m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// ApplyCallback folds a provider callback into the movement.
//
// Providers are permitted to redeliver: a callback that reports the state the
// movement is already in is a no-op with changed=false, not an error. A
// callback that would leave a terminal state is a state-machine violation.
func (m *Movement) ApplyCallback(result *CallbackResult, now time.Time) (changed bool, err error) {
	if result.Status == StatusSuccess && result.AmountMinor != m.AmountMinor {
		return false, fmt.Errorf("%w: movement %d, callback %d", ErrAmountMismatch, m.AmountMinor, result.AmountMinor)
	}
	if m.Status == result.Status {
		return false, nil
	}
	switch result.Status {
	case StatusSuccess:
		if err := m.MarkSuccess(now); err != nil {
			return false, err
		}
	case StatusFailed:
		if err := m.MarkFailed(result.Reason); err != nil {
			return false, err
		}
	case StatusExpired:
		if err := m.MarkExpired(); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: callback status %s", ErrInvalidStateTransition, result.Status)
	}
	m.WebhookPayload = result.Raw
	return true, nil
}
