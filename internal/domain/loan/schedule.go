package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus tracks a schedule line
type InstallmentStatus string

const (
	InstallmentDue  InstallmentStatus = "DUE"
	InstallmentPaid InstallmentStatus = "PAID"
)

// Installment is one repayment line of the amortization schedule.
// Lines are generated once at disbursement and mutated only by repayment
// postings, never regenerated.
type Installment struct {
	ID             uuid.UUID
	LoanID         uuid.UUID
	InstallmentNo  int
	DueDate        time.Time
	PrincipalMinor int64
	InterestMinor  int64
	Status         InstallmentStatus
	PaidAt         *time.Time
}

// TotalMinor is the installment's total due
func (i Installment) TotalMinor() int64 {
	return i.PrincipalMinor + i.InterestMinor
}

// MarkPaid settles the installment
func (i *Installment) MarkPaid(now time.Time) error {
	if i.Status == InstallmentPaid {
		return ErrInstallmentAlreadyPaid
	}
	i.Status = InstallmentPaid
	i.PaidAt = &now
	return nil
}

var (
	hundred     = decimal.NewFromInt(100)
	twelve      = decimal.NewFromInt(12)
	rateDivisor = hundred.Mul(twelve) // monthly interest divisor: rate/100/12
)

// monthlyInterestOn computes one period's interest on the given base amount,
// rounded half-up to a whole minor unit.
func monthlyInterestOn(baseMinor int64, annualRatePct decimal.Decimal) int64 {
	return decimal.NewFromInt(baseMinor).Mul(annualRatePct).Div(rateDivisor).Round(0).IntPart()
}

// GenerateSchedule produces the full amortization schedule for a loan.
//
// Flat: equal principal portions and a constant interest charge computed on
// the original principal. Effective: equal principal portions with interest
// recomputed each period on the remaining balance. Integer division residue
// on the principal is absorbed into the final installment so the scheduled
// principal sums exactly to the original principal.
func GenerateSchedule(loanID uuid.UUID, principalMinor int64, annualRatePct decimal.Decimal, tenorMonths int, method InterestMethod, firstDueDate time.Time) ([]Installment, error) {
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

	basePrincipal := principalMinor / int64(tenorMonths)
	flatInterest := monthlyInterestOn(principalMinor, annualRatePct)

	schedule := make([]Installment, 0, tenorMonths)
	remaining := principalMinor
	for no := 1; no <= tenorMonths; no++ {
		principalPortion := basePrincipal
		if no == tenorMonths {
			principalPortion = remaining
		}

		var interest int64
		switch method {
		case MethodFlat:
			interest = flatInterest
		case MethodEffective:
			interest = monthlyInterestOn(remaining, annualRatePct)
		}

		schedule = append(schedule, Installment{
			ID:             uuid.New(),
			LoanID:         loanID,
			InstallmentNo:  no,
			DueDate:        firstDueDate.AddDate(0, no-1, 0),
			PrincipalMinor: principalPortion,
			InterestMinor:  interest,
			Status:         InstallmentDue,
		})
		remaining -= principalPortion
	}
	return schedule, nil
}

// TotalPrincipalMinor sums the scheduled principal portions
func TotalPrincipalMinor(schedule []Installment) int64 {
	var total int64
	for _, i := range schedule {
		total += i.PrincipalMinor
	}
	return total
}

// TotalInterestMinor sums the scheduled interest charges
func TotalInterestMinor(schedule []Installment) int64 {
	var total int64
	for _, i := range schedule {
		total += i.InterestMinor
	}
	return total
}
