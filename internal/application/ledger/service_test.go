package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/shared"
)

// memAccounts is an in-memory chart of accounts keyed by code
type memAccounts struct {
	byCode map[string]*ledger.Account
}

func (m *memAccounts) Create(_ context.Context, account *ledger.Account) error {
	if _, ok := m.byCode[account.Code]; ok {
		return shared.ErrAlreadyExists
	}
	m.byCode[account.Code] = account
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*ledger.Account, error) {
	for _, acc := range m.byCode {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memAccounts) FindByCode(_ context.Context, _ uuid.UUID, code string) (*ledger.Account, error) {
	acc, ok := m.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (m *memAccounts) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, id := range ids {
		if acc, err := m.FindByID(ctx, orgID, id); err == nil {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *memAccounts) ListActive(_ context.Context, _ uuid.UUID) ([]*ledger.Account, error) {
	var out []*ledger.Account
	for _, acc := range m.byCode {
		if acc.IsActive {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (m *memAccounts) Save(_ context.Context, account *ledger.Account) error {
	m.byCode[account.Code] = account
	return nil
}

// memJournals records posted entries and aggregates balances from their lines
type memJournals struct {
	mu       sync.Mutex
	accounts *memAccounts
	entries  []*ledger.JournalEntry
}

func (m *memJournals) Create(_ context.Context, entry *ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := entry.Validate(); err != nil {
		return err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memJournals) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*ledger.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memJournals) FindByReference(_ context.Context, _ uuid.UUID, referenceType, referenceID string) ([]*ledger.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ledger.JournalEntry
	for _, e := range m.entries {
		if e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memJournals) AccountBalances(_ context.Context, _ uuid.UUID, from, to time.Time) ([]ledger.AccountBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byAccount := make(map[uuid.UUID]*ledger.AccountBalance)
	var order []uuid.UUID
	for _, e := range m.entries {
		if !from.IsZero() && e.TransactionDate.Before(from) {
			continue
		}
		if e.TransactionDate.After(to) {
			continue
		}
		for _, line := range e.Lines {
			bal, ok := byAccount[line.AccountID]
			if !ok {
				var acc *ledger.Account
				for _, a := range m.accounts.byCode {
					if a.ID == line.AccountID {
						acc = a
						break
					}
				}
				if acc == nil {
					continue
				}
				bal = &ledger.AccountBalance{
					AccountID:     acc.ID,
					Code:          acc.Code,
					Name:          acc.Name,
					Type:          acc.Type,
					NormalBalance: acc.NormalBalance,
				}
				byAccount[line.AccountID] = bal
				order = append(order, line.AccountID)
			}
			bal.DebitMinor += line.DebitMinor
			bal.CreditMinor += line.CreditMinor
		}
	}
	out := make([]ledger.AccountBalance, 0, len(order))
	for _, id := range order {
		out = append(out, *byAccount[id])
	}
	return out, nil
}

type fixture struct {
	orgID    uuid.UUID
	opCtx    shared.OperationContext
	accounts *memAccounts
	journals *memJournals
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orgID:    uuid.New(),
		accounts: &memAccounts{byCode: make(map[string]*ledger.Account)},
	}
	f.opCtx = shared.NewOperationContext(uuid.New(), f.orgID)
	f.journals = &memJournals{accounts: f.accounts}

	for _, seed := range []struct {
		code, name string
		accType    ledger.AccountType
	}{
		{"1000", "Cash", ledger.AccountTypeAsset},
		{"2100", "Member Savings", ledger.AccountTypeLiability},
		{"3000", "Member Equity", ledger.AccountTypeEquity},
		{"4000", "Sales Revenue", ledger.AccountTypeRevenue},
		{"5000", "Cost of Goods Sold", ledger.AccountTypeExpense},
	} {
		acc, err := ledger.NewAccount(f.orgID, seed.code, seed.name, seed.accType)
		require.NoError(t, err)
		require.NoError(t, f.accounts.Create(context.Background(), acc))
	}

	f.svc = NewService(f.accounts, f.journals, zap.NewNop())
	return f
}

func (f *fixture) postInput(lines ...JournalLineInput) PostJournalInput {
	return PostJournalInput{
		TransactionDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:     "test posting",
		ReferenceType:   "manual",
		ReferenceID:     "JRN-001",
		Lines:           lines,
	}
}

func TestPostJournal(t *testing.T) {
	ctx := context.Background()

	t.Run("posts a balanced entry", func(t *testing.T) {
		f := newFixture(t)

		entry, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
			JournalLineInput{AccountCode: "1000", DebitMinor: 75_000},
			JournalLineInput{AccountCode: "4000", CreditMinor: 75_000},
		))
		require.NoError(t, err)
		assert.Len(t, entry.Lines, 2)
		assert.Equal(t, entry.TotalDebitMinor(), entry.TotalCreditMinor())
		assert.Len(t, f.journals.entries, 1)
	})

	t.Run("rejects an unbalanced entry", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
			JournalLineInput{AccountCode: "1000", DebitMinor: 75_000},
			JournalLineInput{AccountCode: "4000", CreditMinor: 70_000},
		))
		assert.ErrorIs(t, err, ledger.ErrUnbalancedEntry)
		assert.Empty(t, f.journals.entries)
	})

	t.Run("rejects a line with both sides set", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
			JournalLineInput{AccountCode: "1000", DebitMinor: 5_000, CreditMinor: 5_000},
			JournalLineInput{AccountCode: "4000", CreditMinor: 5_000},
		))
		assert.ErrorIs(t, err, ledger.ErrInvalidLine)
		assert.Empty(t, f.journals.entries)
	})

	t.Run("rejects an unknown account code", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
			JournalLineInput{AccountCode: "9999", DebitMinor: 75_000},
			JournalLineInput{AccountCode: "4000", CreditMinor: 75_000},
		))
		assert.ErrorIs(t, err, ledger.ErrInvalidAccount)
	})

	t.Run("rejects an inactive account", func(t *testing.T) {
		f := newFixture(t)
		f.accounts.byCode["1000"].IsActive = false

		_, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
			JournalLineInput{AccountCode: "1000", DebitMinor: 75_000},
			JournalLineInput{AccountCode: "4000", CreditMinor: 75_000},
		))
		assert.ErrorIs(t, err, ledger.ErrInvalidAccount)
	})
}

func TestReverseJournal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
		JournalLineInput{AccountCode: "1000", DebitMinor: 75_000},
		JournalLineInput{AccountCode: "4000", CreditMinor: 75_000},
	))
	require.NoError(t, err)

	reversal, err := f.svc.ReverseJournal(ctx, f.opCtx, entry.ID.String(), entry.TransactionDate.AddDate(0, 0, 1), "correction")
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, entry.ID, *reversal.ReversalOf)

	// reversal swaps the sides, original untouched
	require.Len(t, reversal.Lines, 2)
	assert.Equal(t, entry.Lines[0].DebitMinor, reversal.Lines[0].CreditMinor)
	assert.Equal(t, entry.Lines[1].CreditMinor, reversal.Lines[1].DebitMinor)
	assert.Len(t, f.journals.entries, 2)

	t.Run("unknown entry id", func(t *testing.T) {
		_, err := f.svc.ReverseJournal(ctx, f.opCtx, uuid.NewString(), time.Now(), "correction")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("malformed entry id", func(t *testing.T) {
		_, err := f.svc.ReverseJournal(ctx, f.opCtx, "not-a-uuid", time.Now(), "correction")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	asOf := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	// a sale: cash in, revenue earned, cost moved to expense from savings-funded inventory
	_, err := f.svc.PostJournal(ctx, f.opCtx, f.postInput(
		JournalLineInput{AccountCode: "1000", DebitMinor: 50_000},
		JournalLineInput{AccountCode: "4000", CreditMinor: 50_000},
	))
	require.NoError(t, err)
	in := f.postInput(
		JournalLineInput{AccountCode: "5000", DebitMinor: 30_000},
		JournalLineInput{AccountCode: "2100", CreditMinor: 30_000},
	)
	in.ReferenceID = "JRN-002"
	_, err = f.svc.PostJournal(ctx, f.opCtx, in)
	require.NoError(t, err)

	t.Run("trial balance balances", func(t *testing.T) {
		tb, err := f.svc.TrialBalance(ctx, f.opCtx, asOf)
		require.NoError(t, err)
		assert.True(t, tb.IsBalanced())
		assert.Equal(t, int64(80_000), tb.TotalDebitMinor)
	})

	t.Run("balance sheet honors the accounting equation", func(t *testing.T) {
		bs, err := f.svc.BalanceSheet(ctx, f.opCtx, asOf)
		require.NoError(t, err)
		assert.True(t, bs.IsBalanced())
		assert.Equal(t, int64(50_000), bs.TotalAssetsMinor)
		assert.Equal(t, int64(30_000), bs.TotalLiabilitiesMinor)
		assert.Equal(t, int64(20_000), bs.NetIncomeMinor)
	})

	t.Run("income statement nets revenue against expenses", func(t *testing.T) {
		is, err := f.svc.IncomeStatement(ctx, f.opCtx, time.Time{}, asOf)
		require.NoError(t, err)
		assert.Equal(t, int64(50_000), is.TotalRevenueMinor)
		assert.Equal(t, int64(30_000), is.TotalExpenseMinor)
		assert.Equal(t, int64(20_000), is.NetIncomeMinor)
	})
}
