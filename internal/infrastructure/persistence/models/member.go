package models

import (
	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/member"
)

// SavingsAccountModel is the persistence model for member savings accounts
type SavingsAccountModel struct {
	OrgAggregateModel
	MemberID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_savings_org_member,composite:org"`
	BalanceMinor int64     `gorm:"not null;default:0"`
	HoldMinor    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for SavingsAccountModel
func (SavingsAccountModel) TableName() string {
	return "savings_accounts"
}

// ToDomain converts the model to a domain SavingsAccount
func (m *SavingsAccountModel) ToDomain() *member.SavingsAccount {
	a := &member.SavingsAccount{
		MemberID:     m.MemberID,
		BalanceMinor: m.BalanceMinor,
		HoldMinor:    m.HoldMinor,
	}
	m.PopulateOrgAggregateRoot(&a.OrgAggregateRoot)
	return a
}

// FromDomain populates the model from a domain SavingsAccount
func (m *SavingsAccountModel) FromDomain(a *member.SavingsAccount) {
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	m.MemberID = a.MemberID
	m.BalanceMinor = a.BalanceMinor
	m.HoldMinor = a.HoldMinor
}
