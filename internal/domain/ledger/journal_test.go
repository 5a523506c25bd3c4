package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountTypeNormalBalance(t *testing.T) {
	tests := []struct {
		accountType AccountType
		want        NormalBalance
	}{
		{AccountTypeAsset, NormalBalanceDebit},
		{AccountTypeExpense, NormalBalanceDebit},
		{AccountTypeLiability, NormalBalanceCredit},
		{AccountTypeEquity, NormalBalanceCredit},
		{AccountTypeRevenue, NormalBalanceCredit},
	}
	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.accountType.NormalBalance())
		})
	}
}

func TestNewAccount(t *testing.T) {
	orgID := uuid.New()

	t.Run("derives normal balance from type", func(t *testing.T) {
		acc, err := NewAccount(orgID, "1000", "Cash", AccountTypeAsset)
		require.NoError(t, err)
		assert.Equal(t, NormalBalanceDebit, acc.NormalBalance)
		assert.True(t, acc.IsActive)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewAccount(orgID, "", "Cash", AccountTypeAsset)
		assert.ErrorIs(t, err, ErrInvalidAccountCode)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewAccount(orgID, "1000", "Cash", AccountType("CONTRA"))
		assert.ErrorIs(t, err, ErrInvalidAccountType)
	})
}

func TestJournalEntryValidate(t *testing.T) {
	orgID := uuid.New()
	cash := uuid.New()
	revenue := uuid.New()
	now := time.Now()

	newEntry := func() *JournalEntry {
		return NewJournalEntry(orgID, now, "retail sale", "retail_sale", "SO-2026-0001")
	}

	t.Run("balanced entry passes", func(t *testing.T) {
		e := newEntry()
		e.AddDebit(cash, 50000, "cash in")
		e.AddCredit(revenue, 50000, "sales revenue")
		assert.NoError(t, e.Validate())
		assert.Equal(t, int64(50000), e.TotalDebitMinor())
		assert.Equal(t, int64(50000), e.TotalCreditMinor())
	})

	t.Run("unbalanced entry fails", func(t *testing.T) {
		e := newEntry()
		e.AddDebit(cash, 50000, "")
		e.AddCredit(revenue, 49999, "")
		assert.ErrorIs(t, e.Validate(), ErrUnbalancedEntry)
	})

	t.Run("single line fails", func(t *testing.T) {
		e := newEntry()
		e.AddDebit(cash, 50000, "")
		assert.ErrorIs(t, e.Validate(), ErrEmptyEntry)
	})

	t.Run("two-sided line fails", func(t *testing.T) {
		e := newEntry()
		e.AddDebit(cash, 50000, "")
		e.Lines = append(e.Lines, JournalLine{
			ID:          uuid.New(),
			AccountID:   revenue,
			DebitMinor:  100,
			CreditMinor: 50000,
		})
		assert.ErrorIs(t, e.Validate(), ErrInvalidLine)
	})

	t.Run("negative amount fails", func(t *testing.T) {
		e := newEntry()
		e.Lines = append(e.Lines, JournalLine{ID: uuid.New(), AccountID: cash, DebitMinor: -1})
		e.AddCredit(revenue, 1, "")
		assert.ErrorIs(t, e.Validate(), ErrInvalidLine)
	})

	t.Run("zero line fails", func(t *testing.T) {
		e := newEntry()
		e.AddDebit(cash, 50000, "")
		e.Lines = append(e.Lines, JournalLine{ID: uuid.New(), AccountID: revenue})
		assert.ErrorIs(t, e.Validate(), ErrInvalidLine)
	})
}

func TestJournalEntryReverse(t *testing.T) {
	orgID := uuid.New()
	cash := uuid.New()
	revenue := uuid.New()
	cogs := uuid.New()
	inventory := uuid.New()

	original := NewJournalEntry(orgID, time.Now(), "retail sale", "retail_sale", "SO-2026-0002")
	original.AddDebit(cash, 50000, "cash in")
	original.AddCredit(revenue, 50000, "sales revenue")
	original.AddDebit(cogs, 30000, "cost of goods")
	original.AddCredit(inventory, 30000, "inventory out")
	require.NoError(t, original.Validate())

	rev := original.Reverse(time.Now(), "reversal of SO-2026-0002")

	require.NoError(t, rev.Validate())
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, original.ID, *rev.ReversalOf)
	assert.Equal(t, original.TotalDebitMinor(), rev.TotalCreditMinor())
	assert.Equal(t, original.TotalCreditMinor(), rev.TotalDebitMinor())

	// each leg swaps sides
	assert.Equal(t, int64(50000), rev.Lines[0].CreditMinor)
	assert.Equal(t, cash, rev.Lines[0].AccountID)
	assert.Equal(t, int64(50000), rev.Lines[1].DebitMinor)
	assert.Equal(t, revenue, rev.Lines[1].AccountID)
}
