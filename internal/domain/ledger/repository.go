package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository persists the chart of accounts
type AccountRepository interface {
	// Create persists a new account. Code must be unique per organization.
	Create(ctx context.Context, account *Account) error

	// FindByID finds an account by ID within an organization
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its code within an organization
	FindByCode(ctx context.Context, organizationID uuid.UUID, code string) (*Account, error)

	// FindByIDs loads a batch of accounts by ID
	FindByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]*Account, error)

	// ListActive lists all active accounts for an organization ordered by code
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]*Account, error)

	// Save persists changes to an existing account
	Save(ctx context.Context, account *Account) error
}

// JournalRepository persists journal entries.
// Create must write the entry and all its lines atomically; no partial line
// set is ever visible to readers.
type JournalRepository interface {
	Create(ctx context.Context, entry *JournalEntry) error

	// FindByID loads an entry with its lines
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*JournalEntry, error)

	// FindByReference loads the entries posted for one business reference
	FindByReference(ctx context.Context, organizationID uuid.UUID, referenceType, referenceID string) ([]*JournalEntry, error)

	// AccountBalances aggregates posting totals per account for entries whose
	// transaction date falls in [from, to]. A zero from means no lower bound.
	AccountBalances(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]AccountBalance, error)
}
