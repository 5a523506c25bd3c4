package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AccountBalance is the aggregated posting totals for one account over a
// period. The repository produces these; report builders fold them into
// trial balance, balance sheet and income statement views.
type AccountBalance struct {
	AccountID     uuid.UUID
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	DebitMinor    int64
	CreditMinor   int64
}

// ClosingMinor returns the closing balance presented on the account's normal
// side: debits minus credits for debit-normal accounts, the inverse otherwise.
func (b AccountBalance) ClosingMinor() int64 {
	if b.NormalBalance == NormalBalanceDebit {
		return b.DebitMinor - b.CreditMinor
	}
	return b.CreditMinor - b.DebitMinor
}

// TrialBalanceRow is one account's line in the trial balance
type TrialBalanceRow struct {
	AccountID   uuid.UUID   `json:"account_id"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	DebitMinor  int64       `json:"debit_minor"`
	CreditMinor int64       `json:"credit_minor"`
}

// TrialBalance lists every account's closing balance as of a date
type TrialBalance struct {
	AsOf             time.Time         `json:"as_of"`
	Rows             []TrialBalanceRow `json:"rows"`
	TotalDebitMinor  int64             `json:"total_debit_minor"`
	TotalCreditMinor int64             `json:"total_credit_minor"`
}

// IsBalanced reports whether total debits equal total credits exactly
func (t *TrialBalance) IsBalanced() bool {
	return t.TotalDebitMinor == t.TotalCreditMinor
}

// BuildTrialBalance folds account balances into a trial balance. Each closing
// balance lands on the account's normal side; a negative closing flips to the
// opposite side so every printed amount stays non-negative.
func BuildTrialBalance(asOf time.Time, balances []AccountBalance) *TrialBalance {
	tb := &TrialBalance{AsOf: asOf, Rows: make([]TrialBalanceRow, 0, len(balances))}
	for _, b := range balances {
		row := TrialBalanceRow{AccountID: b.AccountID, Code: b.Code, Name: b.Name, Type: b.Type}
		closing := b.ClosingMinor()
		side := b.NormalBalance
		if closing < 0 {
			closing = -closing
			if side == NormalBalanceDebit {
				side = NormalBalanceCredit
			} else {
				side = NormalBalanceDebit
			}
		}
		if side == NormalBalanceDebit {
			row.DebitMinor = closing
		} else {
			row.CreditMinor = closing
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebitMinor += row.DebitMinor
		tb.TotalCreditMinor += row.CreditMinor
	}
	return tb
}

// ReportLine is one account's amount on a financial statement
type ReportLine struct {
	AccountID   uuid.UUID `json:"account_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AmountMinor int64     `json:"amount_minor"`
}

// BalanceSheet is the statement of financial position as of a date.
// Retained earnings for the period are folded into NetIncomeMinor so the
// statement balances without a formal period close.
type BalanceSheet struct {
	AsOf                  time.Time    `json:"as_of"`
	Assets                []ReportLine `json:"assets"`
	Liabilities           []ReportLine `json:"liabilities"`
	Equity                []ReportLine `json:"equity"`
	TotalAssetsMinor      int64        `json:"total_assets_minor"`
	TotalLiabilitiesMinor int64        `json:"total_liabilities_minor"`
	TotalEquityMinor      int64        `json:"total_equity_minor"`
	NetIncomeMinor        int64        `json:"net_income_minor"`
}

// IsBalanced checks the accounting equation: assets == liabilities + equity,
// with period net income counted as equity.
func (b *BalanceSheet) IsBalanced() bool {
	return b.TotalAssetsMinor == b.TotalLiabilitiesMinor+b.TotalEquityMinor+b.NetIncomeMinor
}

// BuildBalanceSheet folds balances into the statement of financial position
func BuildBalanceSheet(asOf time.Time, balances []AccountBalance) *BalanceSheet {
	bs := &BalanceSheet{AsOf: asOf}
	for _, b := range balances {
		line := ReportLine{AccountID: b.AccountID, Code: b.Code, Name: b.Name, AmountMinor: b.ClosingMinor()}
		switch b.Type {
		case AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssetsMinor += line.AmountMinor
		case AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilitiesMinor += line.AmountMinor
		case AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquityMinor += line.AmountMinor
		case AccountTypeRevenue:
			bs.NetIncomeMinor += line.AmountMinor
		case AccountTypeExpense:
			bs.NetIncomeMinor -= line.AmountMinor
		}
	}
	return bs
}

// IncomeStatement summarizes revenue and expenses over a period
type IncomeStatement struct {
	From              time.Time    `json:"from"`
	To                time.Time    `json:"to"`
	Revenue           []ReportLine `json:"revenue"`
	Expenses          []ReportLine `json:"expenses"`
	TotalRevenueMinor int64        `json:"total_revenue_minor"`
	TotalExpenseMinor int64        `json:"total_expense_minor"`
	NetIncomeMinor    int64        `json:"net_income_minor"`
}

// BuildIncomeStatement folds period balances into an income statement.
// Balances of non-P&L accounts are ignored.
func BuildIncomeStatement(from, to time.Time, balances []AccountBalance) *IncomeStatement {
	is := &IncomeStatement{From: from, To: to}
	for _, b := range balances {
		line := ReportLine{AccountID: b.AccountID, Code: b.Code, Name: b.Name, AmountMinor: b.ClosingMinor()}
		switch b.Type {
		case AccountTypeRevenue:
			is.Revenue = append(is.Revenue, line)
			is.TotalRevenueMinor += line.AmountMinor
		case AccountTypeExpense:
			is.Expenses = append(is.Expenses, line)
			is.TotalExpenseMinor += line.AmountMinor
		}
	}
	is.NetIncomeMinor = is.TotalRevenueMinor - is.TotalExpenseMinor
	return is
}
