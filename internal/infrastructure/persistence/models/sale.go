package models

import (
	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/retail"
)

// SaleOrderModel is the persistence model for retail sale orders
type SaleOrderModel struct {
	OrgAggregateModel
	OrderNumber    string    `gorm:"size:64;not null;uniqueIndex:idx_sales_org_number,composite:org"`
	MemberID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int64     `gorm:"not null"`
	UnitPriceMinor int64     `gorm:"not null"`
	UnitCostMinor  int64     `gorm:"not null"`
	Status         string    `gorm:"size:16;not null;index"`
}

// TableName returns the table name for SaleOrderModel
func (SaleOrderModel) TableName() string {
	return "sale_orders"
}

// ToDomain converts the model to a domain SaleOrder
func (m *SaleOrderModel) ToDomain() *retail.SaleOrder {
	s := &retail.SaleOrder{
		OrderNumber:    m.OrderNumber,
		MemberID:       m.MemberID,
		ProductID:      m.ProductID,
		Quantity:       m.Quantity,
		UnitPriceMinor: m.UnitPriceMinor,
		UnitCostMinor:  m.UnitCostMinor,
		Status:         retail.SaleStatus(m.Status),
	}
	m.PopulateOrgAggregateRoot(&s.OrgAggregateRoot)
	return s
}

// FromDomain populates the model from a domain SaleOrder
func (m *SaleOrderModel) FromDomain(s *retail.SaleOrder) {
	m.FromDomainOrgAggregateRoot(s.OrgAggregateRoot)
	m.OrderNumber = s.OrderNumber
	m.MemberID = s.MemberID
	m.ProductID = s.ProductID
	m.Quantity = s.Quantity
	m.UnitPriceMinor = s.UnitPriceMinor
	m.UnitCostMinor = s.UnitCostMinor
	m.Status = string(s.Status)
}
