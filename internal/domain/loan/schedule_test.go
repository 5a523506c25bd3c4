package loan

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateScheduleFlat(t *testing.T) {
	loanID := uuid.New()
	firstDue := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// 6,000,000 at 12%/year flat over 6 months:
	// monthly principal 1,000,000, monthly interest 60,000.
	schedule, err := GenerateSchedule(loanID, 6_000_000, decimal.NewFromInt(12), 6, MethodFlat, firstDue)
	require.NoError(t, err)
	require.Len(t, schedule, 6)

	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.InstallmentNo)
		assert.Equal(t, int64(1_000_000), inst.PrincipalMinor)
		assert.Equal(t, int64(60_000), inst.InterestMinor)
		assert.Equal(t, InstallmentDue, inst.Status)
		assert.Equal(t, firstDue.AddDate(0, i, 0), inst.DueDate)
	}

	assert.Equal(t, int64(6_000_000), TotalPrincipalMinor(schedule))
	assert.Equal(t, int64(360_000), TotalInterestMinor(schedule))
}

func TestGenerateScheduleFlatRounding(t *testing.T) {
	// 1,000,000 over 7 months does not divide evenly; the residual lands on
	// the last installment so scheduled principal sums to the original.
	schedule, err := GenerateSchedule(uuid.New(), 1_000_000, decimal.NewFromInt(10), 7, MethodFlat, time.Now())
	require.NoError(t, err)
	require.Len(t, schedule, 7)

	assert.Equal(t, int64(142_857), schedule[0].PrincipalMinor)
	assert.Equal(t, int64(142_858), schedule[6].PrincipalMinor)
	assert.Equal(t, int64(1_000_000), TotalPrincipalMinor(schedule))

	// flat interest recomputation cross-check: principal * rate/100/12 each period
	expectedMonthly := decimal.NewFromInt(1_000_000).
		Mul(decimal.NewFromInt(10)).
		Div(decimal.NewFromInt(1200)).
		Round(0).IntPart()
	assert.Equal(t, expectedMonthly*7, TotalInterestMinor(schedule))
}

func TestGenerateScheduleEffective(t *testing.T) {
	// 6,000,000 at 12%/year effective over 6 months: interest declines with
	// the remaining balance, 1% per month.
	schedule, err := GenerateSchedule(uuid.New(), 6_000_000, decimal.NewFromInt(12), 6, MethodEffective, time.Now())
	require.NoError(t, err)
	require.Len(t, schedule, 6)

	wantInterest := []int64{60_000, 50_000, 40_000, 30_000, 20_000, 10_000}
	for i, inst := range schedule {
		assert.Equal(t, wantInterest[i], inst.InterestMinor, "installment %d", i+1)
		assert.Equal(t, int64(1_000_000), inst.PrincipalMinor)
	}
	assert.Equal(t, int64(6_000_000), TotalPrincipalMinor(schedule))
	assert.Less(t, TotalInterestMinor(schedule), int64(360_000), "effective charges less than flat")
}

func TestGenerateScheduleValidation(t *testing.T) {
	now := time.Now()
	rate := decimal.NewFromInt(12)

	_, err := GenerateSchedule(uuid.New(), 0, rate, 6, MethodFlat, now)
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = GenerateSchedule(uuid.New(), 100, rate, 0, MethodFlat, now)
	assert.ErrorIs(t, err, ErrInvalidTenor)

	_, err = GenerateSchedule(uuid.New(), 100, decimal.NewFromInt(-1), 6, MethodFlat, now)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = GenerateSchedule(uuid.New(), 100, rate, 6, InterestMethod("BALLOON"), now)
	assert.ErrorIs(t, err, ErrInvalidInterestMethod)
}

func TestLoanLifecycle(t *testing.T) {
	l, err := NewLoan(uuid.New(), uuid.New(), "LN-2026-0001", 6_000_000, decimal.NewFromInt(12), 6, MethodFlat)
	require.NoError(t, err)
	assert.Equal(t, LoanStatusPending, l.Status)

	now := time.Now()
	require.NoError(t, l.MarkDisbursed(now))
	assert.Equal(t, LoanStatusActive, l.Status)

	t.Run("double disbursement rejected", func(t *testing.T) {
		assert.ErrorIs(t, l.MarkDisbursed(now), ErrAlreadyDisbursed)
	})

	require.NoError(t, l.MarkPaidOff())
	assert.Equal(t, LoanStatusPaidOff, l.Status)
}

func TestInstallmentMarkPaid(t *testing.T) {
	inst := Installment{ID: uuid.New(), InstallmentNo: 1, PrincipalMinor: 1_000_000, InterestMinor: 60_000, Status: InstallmentDue}
	assert.Equal(t, int64(1_060_000), inst.TotalMinor())

	now := time.Now()
	require.NoError(t, inst.MarkPaid(now))
	assert.ErrorIs(t, inst.MarkPaid(now), ErrInstallmentAlreadyPaid)
}
