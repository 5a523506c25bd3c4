package loan

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists loans and their amortization schedules
type Repository interface {
	Create(ctx context.Context, loan *Loan) error

	// FindByID finds a loan by ID within an organization
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Loan, error)

	// SaveWithLock persists loan changes using optimistic locking on Version
	SaveWithLock(ctx context.Context, loan *Loan) error

	// CreateSchedule persists the full schedule atomically. Fails if a
	// schedule already exists for the loan.
	CreateSchedule(ctx context.Context, loanID uuid.UUID, schedule []Installment) error

	// FindSchedule loads the schedule ordered by installment number
	FindSchedule(ctx context.Context, loanID uuid.UUID) ([]Installment, error)

	// SaveInstallment persists changes to one schedule line
	SaveInstallment(ctx context.Context, installment *Installment) error
}
