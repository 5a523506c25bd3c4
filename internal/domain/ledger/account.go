package ledger

import (
	"errors"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrInvalidAccountType is returned when an account type is not recognized
	ErrInvalidAccountType = errors.New("ledger: invalid account type")
	// ErrInvalidAccountCode is returned when an account code is empty
	ErrInvalidAccountCode = errors.New("ledger: account code is required")
	// ErrInvalidAccountName is returned when an account name is empty
	ErrInvalidAccountName = errors.New("ledger: account name is required")
)

// AccountType classifies an account within the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// NormalBalance returns the side on which this account type increases.
// Assets and expenses grow on the debit side; everything else on the credit side.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// NormalBalance is the side (debit or credit) on which an account increases
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// String returns the string representation of NormalBalance
func (b NormalBalance) String() string {
	return string(b)
}

// Account is one entry in the chart of accounts.
// The normal balance is always derived from the type; it is stored for query
// convenience but can never contradict the type.
type Account struct {
	shared.OrgAggregateRoot
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	IsActive      bool
}

// NewAccount creates an active account with the normal balance derived from its type
func NewAccount(organizationID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	if code == "" {
		return nil, ErrInvalidAccountCode
	}
	if name == "" {
		return nil, ErrInvalidAccountName
	}
	if !accountType.IsValid() {
		return nil, ErrInvalidAccountType
	}
	return &Account{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		Code:             code,
		Name:             name,
		Type:             accountType,
		NormalBalance:    accountType.NormalBalance(),
		IsActive:         true,
	}, nil
}

// Deactivate marks the account as inactive. Inactive accounts reject new
// postings but keep their history.
func (a *Account) Deactivate() {
	a.IsActive = false
}

// Activate re-enables postings to the account
func (a *Account) Activate() {
	a.IsActive = true
}
