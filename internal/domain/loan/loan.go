package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrincipal is returned when the principal is not positive
	ErrInvalidPrincipal = errors.New("loan: principal must be positive")
	// ErrInvalidTenor is returned when the tenor is not positive
	ErrInvalidTenor = errors.New("loan: tenor must be at least one month")
	// ErrInvalidRate is returned when the annual rate is negative
	ErrInvalidRate = errors.New("loan: annual rate cannot be negative")
	// ErrInvalidInterestMethod is returned for an unknown interest method
	ErrInvalidInterestMethod = errors.New("loan: invalid interest method")
	// ErrAlreadyDisbursed is returned when disbursing a loan twice.
	// Schedules are generated once and never regenerated.
	ErrAlreadyDisbursed = errors.New("loan: loan already disbursed")
	// ErrNotDisbursed is returned when repaying a loan that was never disbursed
	ErrNotDisbursed = errors.New("loan: loan has not been disbursed")
	// ErrInstallmentNotFound is returned for an unknown installment number
	ErrInstallmentNotFound = errors.New("loan: installment not found")
	// ErrInstallmentAlreadyPaid is returned when an installment was already settled
	ErrInstallmentAlreadyPaid = errors.New("loan: installment already paid")
)

// InterestMethod selects how interest is computed across the tenor
type InterestMethod string

const (
	// MethodFlat charges interest on the original principal every period
	MethodFlat InterestMethod = "FLAT"
	// MethodEffective recomputes interest each period on the declining balance
	MethodEffective InterestMethod = "EFFECTIVE"
)

// IsValid returns true if the interest method is valid
func (m InterestMethod) IsValid() bool {
	return m == MethodFlat || m == MethodEffective
}

// LoanStatus tracks the loan through its life
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusPaidOff   LoanStatus = "PAID_OFF"
	LoanStatusCancelled LoanStatus = "CANCELLED"
)

// Loan is a member loan with its amortization parameters
type Loan struct {
	shared.OrgAggregateRoot
	LoanNumber     string
	MemberID       uuid.UUID
	PrincipalMinor int64
	AnnualRatePct  decimal.Decimal
	TenorMonths    int
	Method         InterestMethod
	Status         LoanStatus
	DisbursedAt    *time.Time
}

// NewLoan creates a pending loan
func NewLoan(organizationID, memberID uuid.UUID, loanNumber string, principalMinor int64, annualRatePct decimal.Decimal, tenorMonths int, method InterestMethod) (*Loan, error) {
	if principalMinor <= 0 {
		return nil, ErrInvalidPrincipal
	}
	if tenorMonths < 1 {
		return nil, ErrInvalidTenor
	}
	if annualRatePct.IsNegative() {
		return nil, ErrInvalidRate
	}
	if !method.IsValid() {
		return nil, ErrInvalidInterestMethod
	}
	return &Loan{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		LoanNumber:       loanNumber,
		MemberID:         memberID,
		PrincipalMinor:   principalMinor,
		AnnualRatePct:    annualRatePct,
		TenorMonths:      tenorMonths,
		Method:           method,
		Status:           LoanStatusPending,
	}, nil
}

// MarkDisbursed activates the loan. Disbursement happens once.
func (l *Loan) MarkDisbursed(now time.Time) error {
	if l.Status != LoanStatusPending {
		return ErrAlreadyDisbursed
	}
	l.Status = LoanStatusActive
	l.DisbursedAt = &now
	return nil
}

// MarkPaidOff closes a fully repaid loan
func (l *Loan) MarkPaidOff() error {
	if l.Status != LoanStatusActive {
		return ErrNotDisbursed
	}
	l.Status = LoanStatusPaidOff
	return nil
}
