// Package ledger contains the application services for journal posting and
// financial reporting.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/telemetry"
)

// Service posts journal entries and builds financial reports
type Service struct {
	accounts ledger.AccountRepository
	journals ledger.JournalRepository
	logger   *zap.Logger
}

// NewService creates a new ledger service
func NewService(accounts ledger.AccountRepository, journals ledger.JournalRepository, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		journals: journals,
		logger:   logger,
	}
}

// JournalLineInput is one requested posting line, addressed by account code
type JournalLineInput struct {
	AccountCode string `json:"account_code" binding:"required"`
	DebitMinor  int64  `json:"debit_minor" binding:"min=0"`
	CreditMinor int64  `json:"credit_minor" binding:"min=0"`
	Description string `json:"description"`
}

// PostJournalInput is a manual journal posting request
type PostJournalInput struct {
	TransactionDate time.Time          `json:"transaction_date" binding:"required"`
	Description     string             `json:"description" binding:"required"`
	ReferenceType   string             `json:"reference_type" binding:"required"`
	ReferenceID     string             `json:"reference_id" binding:"required"`
	Lines           []JournalLineInput `json:"lines" binding:"required,min=2,dive"`
}

// PostJournal validates every referenced account and posts a balanced entry.
// A missing or inactive account fails the whole entry before anything is
// written.
func (s *Service) PostJournal(ctx context.Context, opCtx shared.OperationContext, input PostJournalInput) (*ledger.JournalEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger.PostJournal")
	defer span.End()

	if err := opCtx.Validate(); err != nil {
		return nil, err
	}

	entry := ledger.NewJournalEntry(opCtx.OrganizationID, input.TransactionDate, input.Description, input.ReferenceType, input.ReferenceID)
	entry.SetCreatedBy(opCtx.ActorID)

	for _, line := range input.Lines {
		if line.DebitMinor > 0 && line.CreditMinor > 0 {
			return nil, fmt.Errorf("%w: code %s carries both sides", ledger.ErrInvalidLine, line.AccountCode)
		}
		account, err := s.accounts.FindByCode(ctx, opCtx.OrganizationID, line.AccountCode)
		if err != nil {
			return nil, fmt.Errorf("%w: code %s", ledger.ErrInvalidAccount, line.AccountCode)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: code %s is inactive", ledger.ErrInvalidAccount, line.AccountCode)
		}
		if line.DebitMinor > 0 {
			entry.AddDebit(account.ID, line.DebitMinor, line.Description)
		} else {
			entry.AddCredit(account.ID, line.CreditMinor, line.Description)
		}
	}

	if err := entry.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.journals.Create(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("journal entry posted",
		zap.String("journal_id", entry.ID.String()),
		zap.String("reference", input.ReferenceType+"/"+input.ReferenceID),
		zap.Int64("total_minor", entry.TotalDebitMinor()),
	)
	return entry, nil
}

// ReverseJournal posts the correcting entry for an existing one. The original
// entry is never touched.
func (s *Service) ReverseJournal(ctx context.Context, opCtx shared.OperationContext, entryID string, transactionDate time.Time, description string) (*ledger.JournalEntry, error) {
	if err := opCtx.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(entryID)
	if err != nil {
		return nil, shared.ErrInvalidInput
	}

	original, err := s.journals.FindByID(ctx, opCtx.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	reversal := original.Reverse(transactionDate, description)
	reversal.SetCreatedBy(opCtx.ActorID)
	if err := s.journals.Create(ctx, reversal); err != nil {
		return nil, err
	}

	s.logger.Info("journal entry reversed",
		zap.String("original_id", original.ID.String()),
		zap.String("reversal_id", reversal.ID.String()),
	)
	return reversal, nil
}

// TrialBalance builds the trial balance as of a date
func (s *Service) TrialBalance(ctx context.Context, opCtx shared.OperationContext, asOf time.Time) (*ledger.TrialBalance, error) {
	if err := opCtx.Validate(); err != nil {
		return nil, err
	}
	balances, err := s.journals.AccountBalances(ctx, opCtx.OrganizationID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	tb := ledger.BuildTrialBalance(asOf, balances)
	if !tb.IsBalanced() {
		// A skewed trial balance means a storage-level invariant broke.
		s.logger.Error("trial balance out of balance",
			zap.String("organization_id", opCtx.OrganizationID.String()),
			zap.Int64("total_debit_minor", tb.TotalDebitMinor),
			zap.Int64("total_credit_minor", tb.TotalCreditMinor),
		)
	}
	return tb, nil
}

// BalanceSheet builds the statement of financial position as of a date
func (s *Service) BalanceSheet(ctx context.Context, opCtx shared.OperationContext, asOf time.Time) (*ledger.BalanceSheet, error) {
	if err := opCtx.Validate(); err != nil {
		return nil, err
	}
	balances, err := s.journals.AccountBalances(ctx, opCtx.OrganizationID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	return ledger.BuildBalanceSheet(asOf, balances), nil
}

// IncomeStatement summarizes revenue and expenses over a period
func (s *Service) IncomeStatement(ctx context.Context, opCtx shared.OperationContext, from, to time.Time) (*ledger.IncomeStatement, error) {
	if err := opCtx.Validate(); err != nil {
		return nil, err
	}
	balances, err := s.journals.AccountBalances(ctx, opCtx.OrganizationID, from, to)
	if err != nil {
		return nil, err
	}
	return ledger.BuildIncomeStatement(from, to, balances), nil
}
