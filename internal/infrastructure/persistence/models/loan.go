package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/koperasi/backend/internal/domain/loan"
)

// LoanModel is the persistence model for member loans
type LoanModel struct {
	OrgAggregateModel
	LoanNumber     string          `gorm:"size:64;not null;uniqueIndex:idx_loans_org_number,composite:org"`
	MemberID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrincipalMinor int64           `gorm:"not null"`
	AnnualRatePct  decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	TenorMonths    int             `gorm:"not null"`
	Method         string          `gorm:"size:16;not null"`
	Status         string          `gorm:"size:16;not null;index"`
	DisbursedAt    *time.Time      `gorm:""`
}

// TableName returns the table name for LoanModel
func (LoanModel) TableName() string {
	return "loans"
}

// ToDomain converts the model to a domain Loan
func (m *LoanModel) ToDomain() *loan.Loan {
	l := &loan.Loan{
		LoanNumber:     m.LoanNumber,
		MemberID:       m.MemberID,
		PrincipalMinor: m.PrincipalMinor,
		AnnualRatePct:  m.AnnualRatePct,
		TenorMonths:    m.TenorMonths,
		Method:         loan.InterestMethod(m.Method),
		Status:         loan.LoanStatus(m.Status),
		DisbursedAt:    m.DisbursedAt,
	}
	m.PopulateOrgAggregateRoot(&l.OrgAggregateRoot)
	return l
}

// FromDomain populates the model from a domain Loan
func (m *LoanModel) FromDomain(l *loan.Loan) {
	m.FromDomainOrgAggregateRoot(l.OrgAggregateRoot)
	m.LoanNumber = l.LoanNumber
	m.MemberID = l.MemberID
	m.PrincipalMinor = l.PrincipalMinor
	m.AnnualRatePct = l.AnnualRatePct
	m.TenorMonths = l.TenorMonths
	m.Method = string(l.Method)
	m.Status = string(l.Status)
	m.DisbursedAt = l.DisbursedAt
}

// LoanInstallmentModel is the persistence model for amortization schedule lines
type LoanInstallmentModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	LoanID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_installments_loan_no,composite:loan"`
	InstallmentNo  int        `gorm:"not null;uniqueIndex:idx_installments_loan_no,composite:loan"`
	DueDate        time.Time  `gorm:"not null"`
	PrincipalMinor int64      `gorm:"not null"`
	InterestMinor  int64      `gorm:"not null"`
	Status         string     `gorm:"size:16;not null"`
	PaidAt         *time.Time `gorm:""`
}

// TableName returns the table name for LoanInstallmentModel
func (LoanInstallmentModel) TableName() string {
	return "loan_installments"
}

// ToDomain converts the model to a domain Installment
func (m *LoanInstallmentModel) ToDomain() loan.Installment {
	return loan.Installment{
		ID:             m.ID,
		LoanID:         m.LoanID,
		InstallmentNo:  m.InstallmentNo,
		DueDate:        m.DueDate,
		PrincipalMinor: m.PrincipalMinor,
		InterestMinor:  m.InterestMinor,
		Status:         loan.InstallmentStatus(m.Status),
		PaidAt:         m.PaidAt,
	}
}

// FromDomain populates the model from a domain Installment
func (m *LoanInstallmentModel) FromDomain(i loan.Installment) {
	m.ID = i.ID
	m.LoanID = i.LoanID
	m.InstallmentNo = i.InstallmentNo
	m.DueDate = i.DueDate
	m.PrincipalMinor = i.PrincipalMinor
	m.InterestMinor = i.InterestMinor
	m.Status = string(i.Status)
	m.PaidAt = i.PaidAt
}
