// Package loan implements member loan origination, disbursement and repayment
// postings against the amortization schedule.
package loan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/loan"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

// postRetries bounds journal posting retries after a movement settled
const postRetries = 3

// AccountCodes maps loan events to chart-of-accounts codes
type AccountCodes struct {
	Cash           string
	LoanReceivable string
	InterestIncome string
}

// Service runs loan origination, disbursement and repayment postings
type Service struct {
	guard     shared.IdempotencyGuard
	loans     loan.Repository
	movements payment.MovementRepository
	journals  ledger.JournalRepository
	accounts  ledger.AccountRepository
	codes     AccountCodes
	logger    *zap.Logger
}

// NewService creates a new loan service
func NewService(
	guard shared.IdempotencyGuard,
	loans loan.Repository,
	movements payment.MovementRepository,
	journals ledger.JournalRepository,
	accounts ledger.AccountRepository,
	codes AccountCodes,
	logger *zap.Logger,
) *Service {
	return &Service{
		guard:     guard,
		loans:     loans,
		movements: movements,
		journals:  journals,
		accounts:  accounts,
		codes:     codes,
		logger:    logger,
	}
}

// CreateInput is a loan origination request
type CreateInput struct {
	LoanNumber     string              `json:"loan_number" binding:"required"`
	MemberID       uuid.UUID           `json:"member_id" binding:"required"`
	PrincipalMinor int64               `json:"principal_minor" binding:"required,min=1"`
	AnnualRatePct  decimal.Decimal     `json:"annual_rate_pct"`
	TenorMonths    int                 `json:"tenor_months" binding:"required,min=1"`
	Method         loan.InterestMethod `json:"method" binding:"required"`
}

// CreateLoan registers a pending loan. No money moves until disbursement.
func (s *Service) CreateLoan(ctx context.Context, opCtx shared.OperationContext, input CreateInput) (*loan.Loan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "loan.CreateLoan")
	defer span.End()

	if err := opCtx.Validate(); err != nil {
		return nil, err
	}
	l, err := loan.NewLoan(opCtx.OrganizationID, input.MemberID, input.LoanNumber, input.PrincipalMinor, input.AnnualRatePct, input.TenorMonths, input.Method)
	if err != nil {
		return nil, err
	}
	l.SetCreatedBy(opCtx.ActorID)
	if err := s.loans.Create(ctx, l); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("loan created",
		zap.String("loan_number", l.LoanNumber),
		zap.Int64("principal_minor", l.PrincipalMinor),
		zap.Int("tenor_months", l.TenorMonths),
		zap.String("method", string(l.Method)),
	)
	return l, nil
}

// DisburseResult is the disbursement outcome, stored as the replay snapshot
type DisburseResult struct {
	LoanID             uuid.UUID `json:"loan_id"`
	MovementID         uuid.UUID `json:"movement_id"`
	JournalID          uuid.UUID `json:"journal_id"`
	Installments       int       `json:"installments"`
	TotalInterestMinor int64     `json:"total_interest_minor"`
}

// Disburse activates a pending loan: generates the amortization schedule,
// records the cash outflow and posts Dr Loan Receivable / Cr Cash. The whole
// operation runs under the guard, so a retry replays the stored result instead
// of generating a second schedule.
func (s *Service) Disburse(ctx context.Context, opCtx shared.OperationContext, loanID uuid.UUID, firstDueDate time.Time) (*DisburseResult, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "loan.Disburse")
	defer span.End()

	if err := opCtx.Validate(); err != nil {
		return nil, false, err
	}
	l, err := s.loans.FindByID(ctx, opCtx.OrganizationID, loanID)
	if err != nil {
		return nil, false, err
	}

	key := shared.DeriveKey("loan.disburse", l.LoanNumber, opCtx.ActorID, l.PrincipalMinor)
	fingerprint := shared.Fingerprint("loan.disburse", l.ID.String())

	snapshot, replayed, err := s.guard.ExecuteOnce(ctx, key, fingerprint, func(ctx context.Context) ([]byte, error) {
		result, err := s.disburse(ctx, opCtx, l, firstDueDate)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}

	var result DisburseResult
	if err := json.Unmarshal(snapshot, &result); err != nil {
		return nil, false, fmt.Errorf("corrupt disbursement snapshot: %w", err)
	}
	return &result, replayed, nil
}

// disburse performs a claimed disbursement
func (s *Service) disburse(ctx context.Context, opCtx shared.OperationContext, l *loan.Loan, firstDueDate time.Time) (*DisburseResult, error) {
	now := time.Now()
	if err := l.MarkDisbursed(now); err != nil {
		return nil, err
	}

	schedule, err := loan.GenerateSchedule(l.ID, l.PrincipalMinor, l.AnnualRatePct, l.TenorMonths, l.Method, firstDueDate)
	if err != nil {
		return nil, err
	}
	if err := s.loans.CreateSchedule(ctx, l.ID, schedule); err != nil {
		return nil, err
	}

	movement, err := payment.NewMovement(opCtx.OrganizationID, payment.MovementLoanDisbursement, "loan", l.LoanNumber, payment.MethodCash, l.PrincipalMinor)
	if err != nil {
		return nil, err
	}
	movement.SetCreatedBy(opCtx.ActorID)
	if err := movement.MarkSuccess(now); err != nil {
		return nil, err
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, err
	}

	receivable, err := s.activeAccount(ctx, opCtx.OrganizationID, s.codes.LoanReceivable)
	if err != nil {
		return nil, err
	}
	cash, err := s.activeAccount(ctx, opCtx.OrganizationID, s.codes.Cash)
	if err != nil {
		return nil, err
	}
	entry := ledger.NewJournalEntry(opCtx.OrganizationID, now, "loan disbursement "+l.LoanNumber, "loan", l.LoanNumber)
	entry.CreatedBy = l.CreatedBy
	entry.AddDebit(receivable.ID, l.PrincipalMinor, "loan principal")
	entry.AddCredit(cash.ID, l.PrincipalMinor, "cash disbursed")
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.postEntry(ctx, entry, l.LoanNumber, movement.ID); err != nil {
		return nil, err
	}

	if err := s.loans.SaveWithLock(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("loan disbursed",
		zap.String("loan_number", l.LoanNumber),
		zap.Int64("principal_minor", l.PrincipalMinor),
		zap.Int("installments", len(schedule)),
	)
	return &DisburseResult{
		LoanID:             l.ID,
		MovementID:         movement.ID,
		JournalID:          entry.ID,
		Installments:       len(schedule),
		TotalInterestMinor: loan.TotalInterestMinor(schedule),
	}, nil
}

// RepayResult is the repayment outcome, stored as the replay snapshot
type RepayResult struct {
	LoanID         uuid.UUID       `json:"loan_id"`
	InstallmentNo  int             `json:"installment_no"`
	MovementID     uuid.UUID       `json:"movement_id"`
	JournalID      uuid.UUID       `json:"journal_id"`
	PrincipalMinor int64           `json:"principal_minor"`
	InterestMinor  int64           `json:"interest_minor"`
	LoanStatus     loan.LoanStatus `json:"loan_status"`
}

// Repay settles one installment in cash and posts Dr Cash for the total
// against Cr Loan Receivable for the principal portion and Cr Interest Income
// for the interest portion. Guarded per loan and installment; settling the
// final installment closes the loan.
func (s *Service) Repay(ctx context.Context, opCtx shared.OperationContext, loanID uuid.UUID, installmentNo int) (*RepayResult, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "loan.Repay")
	defer span.End()

	if err := opCtx.Validate(); err != nil {
		return nil, false, err
	}
	l, err := s.loans.FindByID(ctx, opCtx.OrganizationID, loanID)
	if err != nil {
		return nil, false, err
	}
	if l.Status != loan.LoanStatusActive {
		return nil, false, loan.ErrNotDisbursed
	}
	schedule, err := s.loans.FindSchedule(ctx, l.ID)
	if err != nil {
		return nil, false, err
	}
	installment := findInstallment(schedule, installmentNo)
	if installment == nil {
		return nil, false, loan.ErrInstallmentNotFound
	}

	reference := fmt.Sprintf("%s#%d", l.LoanNumber, installmentNo)
	key := shared.DeriveKey("loan.repay", reference, opCtx.ActorID, installment.TotalMinor())
	fingerprint := shared.Fingerprint("loan.repay", l.ID.String(), fmt.Sprintf("%d", installmentNo))

	snapshot, replayed, err := s.guard.ExecuteOnce(ctx, key, fingerprint, func(ctx context.Context) ([]byte, error) {
		result, err := s.repay(ctx, opCtx, l, schedule, installment, reference)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, false, err
	}

	var result RepayResult
	if err := json.Unmarshal(snapshot, &result); err != nil {
		return nil, false, fmt.Errorf("corrupt repayment snapshot: %w", err)
	}
	return &result, replayed, nil
}

// repay performs a claimed repayment
func (s *Service) repay(ctx context.Context, opCtx shared.OperationContext, l *loan.Loan, schedule []loan.Installment, installment *loan.Installment, reference string) (*RepayResult, error) {
	now := time.Now()
	if err := installment.MarkPaid(now); err != nil {
		return nil, err
	}

	movement, err := payment.NewMovement(opCtx.OrganizationID, payment.MovementLoanRepayment, "loan_installment", reference, payment.MethodCash, installment.TotalMinor())
	if err != nil {
		return nil, err
	}
	movement.SetCreatedBy(opCtx.ActorID)
	if err := movement.MarkSuccess(now); err != nil {
		return nil, err
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, err
	}

	entry, err := s.buildRepaymentEntry(ctx, opCtx, l, installment, reference, now)
	if err != nil {
		return nil, err
	}
	if err := s.postEntry(ctx, entry, reference, movement.ID); err != nil {
		return nil, err
	}

	if err := s.loans.SaveInstallment(ctx, installment); err != nil {
		return nil, err
	}

	if allPaid(schedule, installment.InstallmentNo) {
		if err := l.MarkPaidOff(); err != nil {
			return nil, err
		}
		if err := s.loans.SaveWithLock(ctx, l); err != nil {
			return nil, err
		}
		s.logger.Info("loan paid off", zap.String("loan_number", l.LoanNumber))
	}

	s.logger.Info("installment settled",
		zap.String("loan_number", l.LoanNumber),
		zap.Int("installment_no", installment.InstallmentNo),
		zap.Int64("principal_minor", installment.PrincipalMinor),
		zap.Int64("interest_minor", installment.InterestMinor),
	)
	return &RepayResult{
		LoanID:         l.ID,
		InstallmentNo:  installment.InstallmentNo,
		MovementID:     movement.ID,
		JournalID:      entry.ID,
		PrincipalMinor: installment.PrincipalMinor,
		InterestMinor:  installment.InterestMinor,
		LoanStatus:     l.Status,
	}, nil
}

// Schedule returns the amortization schedule for a loan
func (s *Service) Schedule(ctx context.Context, opCtx shared.OperationContext, loanID uuid.UUID) ([]loan.Installment, error) {
	if err := opCtx.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loans.FindByID(ctx, opCtx.OrganizationID, loanID); err != nil {
		return nil, err
	}
	return s.loans.FindSchedule(ctx, loanID)
}

// buildRepaymentEntry assembles the balanced repayment entry
func (s *Service) buildRepaymentEntry(ctx context.Context, opCtx shared.OperationContext, l *loan.Loan, installment *loan.Installment, reference string, now time.Time) (*ledger.JournalEntry, error) {
	cash, err := s.activeAccount(ctx, opCtx.OrganizationID, s.codes.Cash)
	if err != nil {
		return nil, err
	}
	receivable, err := s.activeAccount(ctx, opCtx.OrganizationID, s.codes.LoanReceivable)
	if err != nil {
		return nil, err
	}

	entry := ledger.NewJournalEntry(opCtx.OrganizationID, now, fmt.Sprintf("loan repayment %s installment %d", l.LoanNumber, installment.InstallmentNo), "loan_installment", reference)
	entry.CreatedBy = &opCtx.ActorID
	entry.AddDebit(cash.ID, installment.TotalMinor(), "installment received")
	entry.AddCredit(receivable.ID, installment.PrincipalMinor, "principal repaid")
	if installment.InterestMinor > 0 {
		income, err := s.activeAccount(ctx, opCtx.OrganizationID, s.codes.InterestIncome)
		if err != nil {
			return nil, err
		}
		entry.AddCredit(income.ID, installment.InterestMinor, "interest income")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// postEntry posts a journal entry with bounded retries. The movement is
// already settled when this runs, so exhaustion is surfaced for operator
// intervention rather than reversed.
func (s *Service) postEntry(ctx context.Context, entry *ledger.JournalEntry, reference string, movementID uuid.UUID) error {
	var postErr error
	for attempt := 1; attempt <= postRetries; attempt++ {
		if postErr = s.journals.Create(ctx, entry); postErr == nil {
			return nil
		}
		s.logger.Warn("journal posting failed, retrying",
			zap.String("reference", reference),
			zap.Int("attempt", attempt),
			zap.Error(postErr),
		)
	}
	s.logger.Error("settled loan posting could not be recorded, manual intervention required",
		zap.String("reference", reference),
		zap.String("movement_id", movementID.String()),
		zap.Error(postErr),
	)
	return fmt.Errorf("journal posting failed after settlement: %w", postErr)
}

// activeAccount resolves a code to an active account
func (s *Service) activeAccount(ctx context.Context, organizationID uuid.UUID, code string) (*ledger.Account, error) {
	account, err := s.accounts.FindByCode(ctx, organizationID, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code %s", ledger.ErrInvalidAccount, code)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: code %s is inactive", ledger.ErrInvalidAccount, code)
	}
	return account, nil
}

func findInstallment(schedule []loan.Installment, no int) *loan.Installment {
	for i := range schedule {
		if schedule[i].InstallmentNo == no {
			return &schedule[i]
		}
	}
	return nil
}

// allPaid reports whether every schedule line is settled, treating the line
// numbered justPaid as settled regardless of its loaded state.
func allPaid(schedule []loan.Installment, justPaid int) bool {
	for _, inst := range schedule {
		if inst.InstallmentNo == justPaid {
			continue
		}
		if inst.Status != loan.InstallmentPaid {
			return false
		}
	}
	return true
}
