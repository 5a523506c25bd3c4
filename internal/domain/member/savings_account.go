package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrInvalidHoldAmount is returned when a hold amount is not positive
	ErrInvalidHoldAmount = errors.New("member: hold amount must be positive")
	// ErrHoldExceedsHeld is returned when releasing or capturing more than is held
	ErrHoldExceedsHeld = errors.New("member: amount exceeds held funds")
)

// SavingsAccount is a member's savings balance inside the cooperative.
// Checkout places an optimistic hold first and captures it only at commit,
// so ledger-visible balance never moves before settlement.
type SavingsAccount struct {
	shared.OrgAggregateRoot
	MemberID     uuid.UUID
	BalanceMinor int64
	HoldMinor    int64
}

// NewSavingsAccount opens an empty savings account for a member
func NewSavingsAccount(organizationID, memberID uuid.UUID) *SavingsAccount {
	return &SavingsAccount{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		MemberID:         memberID,
	}
}

// AvailableMinor is the balance not covered by holds
func (a *SavingsAccount) AvailableMinor() int64 {
	return a.BalanceMinor - a.HoldMinor
}

// Deposit adds funds
func (a *SavingsAccount) Deposit(amountMinor int64) error {
	if amountMinor <= 0 {
		return ErrInvalidHoldAmount
	}
	a.BalanceMinor += amountMinor
	return nil
}

// Hold reserves funds without mutating the visible balance
func (a *SavingsAccount) Hold(amountMinor int64) error {
	if amountMinor <= 0 {
		return ErrInvalidHoldAmount
	}
	if a.AvailableMinor() < amountMinor {
		return shared.ErrInsufficientBalance
	}
	a.HoldMinor += amountMinor
	return nil
}

// ReleaseHold returns reserved funds to the available balance
func (a *SavingsAccount) ReleaseHold(amountMinor int64) error {
	if amountMinor <= 0 {
		return ErrInvalidHoldAmount
	}
	if a.HoldMinor < amountMinor {
		return ErrHoldExceedsHeld
	}
	a.HoldMinor -= amountMinor
	return nil
}

// CaptureHold converts reserved funds into a permanent debit
func (a *SavingsAccount) CaptureHold(amountMinor int64) error {
	if amountMinor <= 0 {
		return ErrInvalidHoldAmount
	}
	if a.HoldMinor < amountMinor {
		return ErrHoldExceedsHeld
	}
	a.HoldMinor -= amountMinor
	a.BalanceMinor -= amountMinor
	return nil
}

// Repository persists savings accounts
type Repository interface {
	Create(ctx context.Context, account *SavingsAccount) error

	// FindByMemberID finds a member's savings account within an organization
	FindByMemberID(ctx context.Context, organizationID, memberID uuid.UUID) (*SavingsAccount, error)

	// SaveWithLock persists changes using optimistic locking on Version.
	// Returns shared.ErrConcurrencyConflict when the version moved.
	SaveWithLock(ctx context.Context, account *SavingsAccount) error
}
