package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrUnbalancedEntry is returned when debit and credit totals differ.
	// Amounts are integer minor currency units; the tolerance is zero.
	ErrUnbalancedEntry = errors.New("ledger: journal entry debits do not equal credits")
	// ErrEmptyEntry is returned when an entry has fewer than two lines
	ErrEmptyEntry = errors.New("ledger: journal entry needs at least two lines")
	// ErrInvalidAccount is returned when a line references a missing or inactive account
	ErrInvalidAccount = errors.New("ledger: account is missing or inactive")
	// ErrInvalidLine is returned when a line is not one-sided or carries a negative amount
	ErrInvalidLine = errors.New("ledger: journal line must have exactly one positive side")
)

// JournalLine is one debit or credit leg of a journal entry.
// Exactly one of DebitMinor/CreditMinor is non-zero; both are non-negative.
type JournalLine struct {
	ID          uuid.UUID
	JournalID   uuid.UUID
	AccountID   uuid.UUID
	DebitMinor  int64
	CreditMinor int64
	Description string
}

// Validate checks the one-sided, non-negative line invariant
func (l JournalLine) Validate() error {
	if l.DebitMinor < 0 || l.CreditMinor < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidLine)
	}
	if (l.DebitMinor == 0) == (l.CreditMinor == 0) {
		return ErrInvalidLine
	}
	return nil
}

// JournalEntry is one balanced double-entry accounting record.
// Entries are immutable once posted; corrections are reversing entries.
type JournalEntry struct {
	shared.OrgAggregateRoot
	TransactionDate time.Time
	Description     string
	ReferenceType   string
	ReferenceID     string
	ReversalOf      *uuid.UUID
	Lines           []JournalLine
}

// NewJournalEntry starts an empty journal entry for the given business reference
func NewJournalEntry(organizationID uuid.UUID, transactionDate time.Time, description, referenceType, referenceID string) *JournalEntry {
	return &JournalEntry{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		TransactionDate:  transactionDate,
		Description:      description,
		ReferenceType:    referenceType,
		ReferenceID:      referenceID,
		Lines:            make([]JournalLine, 0, 2),
	}
}

// AddDebit appends a debit line
func (e *JournalEntry) AddDebit(accountID uuid.UUID, amountMinor int64, description string) *JournalEntry {
	e.Lines = append(e.Lines, JournalLine{
		ID:          uuid.New(),
		JournalID:   e.ID,
		AccountID:   accountID,
		DebitMinor:  amountMinor,
		Description: description,
	})
	return e
}

// AddCredit appends a credit line
func (e *JournalEntry) AddCredit(accountID uuid.UUID, amountMinor int64, description string) *JournalEntry {
	e.Lines = append(e.Lines, JournalLine{
		ID:          uuid.New(),
		JournalID:   e.ID,
		AccountID:   accountID,
		CreditMinor: amountMinor,
		Description: description,
	})
	return e
}

// TotalDebitMinor sums the debit side
func (e *JournalEntry) TotalDebitMinor() int64 {
	var total int64
	for _, l := range e.Lines {
		total += l.DebitMinor
	}
	return total
}

// TotalCreditMinor sums the credit side
func (e *JournalEntry) TotalCreditMinor() int64 {
	var total int64
	for _, l := range e.Lines {
		total += l.CreditMinor
	}
	return total
}

// Validate enforces the entry invariants: at least two lines, every line
// one-sided and non-negative, and debits equal to credits exactly.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return ErrEmptyEntry
	}
	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	if e.TotalDebitMinor() != e.TotalCreditMinor() {
		return fmt.Errorf("%w: debit %d, credit %d", ErrUnbalancedEntry, e.TotalDebitMinor(), e.TotalCreditMinor())
	}
	return nil
}

// Reverse produces the correcting entry for a posted entry: every line's
// sides swapped, linked back via ReversalOf. The original is never edited.
func (e *JournalEntry) Reverse(transactionDate time.Time, description string) *JournalEntry {
	rev := NewJournalEntry(e.OrganizationID, transactionDate, description, e.ReferenceType, e.ReferenceID)
	originalID := e.ID
	rev.ReversalOf = &originalID
	for _, l := range e.Lines {
		if l.DebitMinor > 0 {
			rev.AddCredit(l.AccountID, l.DebitMinor, l.Description)
		} else {
			rev.AddDebit(l.AccountID, l.CreditMinor, l.Description)
		}
	}
	return rev
}
