package models

import (
	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/retail"
)

// StockItemModel is the persistence model for sellable stock
type StockItemModel struct {
	OrgAggregateModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_org_product,composite:org"`
	OnHand        int64     `gorm:"not null;default:0"`
	Locked        int64     `gorm:"not null;default:0"`
	UnitCostMinor int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for StockItemModel
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the model to a domain StockItem
func (m *StockItemModel) ToDomain() *retail.StockItem {
	s := &retail.StockItem{
		ProductID:     m.ProductID,
		OnHand:        m.OnHand,
		Locked:        m.Locked,
		UnitCostMinor: m.UnitCostMinor,
	}
	m.PopulateOrgAggregateRoot(&s.OrgAggregateRoot)
	return s
}

// FromDomain populates the model from a domain StockItem
func (m *StockItemModel) FromDomain(s *retail.StockItem) {
	m.FromDomainOrgAggregateRoot(s.OrgAggregateRoot)
	m.ProductID = s.ProductID
	m.OnHand = s.OnHand
	m.Locked = s.Locked
	m.UnitCostMinor = s.UnitCostMinor
}
