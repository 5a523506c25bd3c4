package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/ledger"
)

// AccountModel is the persistence model for chart-of-accounts entries
type AccountModel struct {
	OrgAggregateModel
	Code          string `gorm:"size:32;not null;uniqueIndex:idx_accounts_org_code,composite:org"`
	Name          string `gorm:"size:255;not null"`
	Type          string `gorm:"size:16;not null"`
	NormalBalance string `gorm:"size:8;not null"`
	IsActive      bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for AccountModel
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	a := &ledger.Account{
		Code:          m.Code,
		Name:          m.Name,
		Type:          ledger.AccountType(m.Type),
		NormalBalance: ledger.NormalBalance(m.NormalBalance),
		IsActive:      m.IsActive,
	}
	m.PopulateOrgAggregateRoot(&a.OrgAggregateRoot)
	return a
}

// FromDomain populates the model from a domain Account
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type.String()
	m.NormalBalance = a.NormalBalance.String()
	m.IsActive = a.IsActive
}

// JournalEntryModel is the persistence model for journal entries
type JournalEntryModel struct {
	OrgAggregateModel
	TransactionDate time.Time  `gorm:"not null;index"`
	Description     string     `gorm:"size:512"`
	ReferenceType   string     `gorm:"size:64;not null;index:idx_journal_entries_ref"`
	ReferenceID     string     `gorm:"size:128;not null;index:idx_journal_entries_ref"`
	ReversalOf      *uuid.UUID `gorm:"type:uuid"`

	Lines []JournalLineModel `gorm:"foreignKey:JournalID"`
}

// TableName returns the table name for JournalEntryModel
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// JournalLineModel is the persistence model for journal lines
type JournalLineModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	JournalID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DebitMinor  int64     `gorm:"not null;default:0"`
	CreditMinor int64     `gorm:"not null;default:0"`
	Description string    `gorm:"size:512"`
}

// TableName returns the table name for JournalLineModel
func (JournalLineModel) TableName() string {
	return "journal_lines"
}

// ToDomain converts the model to a domain JournalEntry with its lines
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	e := &ledger.JournalEntry{
		TransactionDate: m.TransactionDate,
		Description:     m.Description,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		ReversalOf:      m.ReversalOf,
		Lines:           make([]ledger.JournalLine, 0, len(m.Lines)),
	}
	m.PopulateOrgAggregateRoot(&e.OrgAggregateRoot)
	for _, l := range m.Lines {
		e.Lines = append(e.Lines, ledger.JournalLine{
			ID:          l.ID,
			JournalID:   l.JournalID,
			AccountID:   l.AccountID,
			DebitMinor:  l.DebitMinor,
			CreditMinor: l.CreditMinor,
			Description: l.Description,
		})
	}
	return e
}

// FromDomain populates the model and its lines from a domain JournalEntry
func (m *JournalEntryModel) FromDomain(e *ledger.JournalEntry) {
	m.FromDomainOrgAggregateRoot(e.OrgAggregateRoot)
	m.TransactionDate = e.TransactionDate
	m.Description = e.Description
	m.ReferenceType = e.ReferenceType
	m.ReferenceID = e.ReferenceID
	m.ReversalOf = e.ReversalOf
	m.Lines = make([]JournalLineModel, 0, len(e.Lines))
	for _, l := range e.Lines {
		m.Lines = append(m.Lines, JournalLineModel{
			ID:          l.ID,
			JournalID:   e.ID,
			AccountID:   l.AccountID,
			DebitMinor:  l.DebitMinor,
			CreditMinor: l.CreditMinor,
			Description: l.Description,
		})
	}
}
