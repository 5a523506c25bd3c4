package retail

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrInvalidSaleAmount is returned when a sale total is not positive
	ErrInvalidSaleAmount = errors.New("retail: sale total must be positive")
	// ErrSaleNotPending is returned when finalizing or cancelling a closed sale
	ErrSaleNotPending = errors.New("retail: sale is not pending")
)

// SaleStatus tracks a sale order through settlement
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCancelled SaleStatus = "CANCELLED"
)

// SaleOrder is one retail checkout. It holds everything settlement needs to
// finalize later: external payments settle asynchronously, and the webhook or
// reconciliation path must still know what was sold, to whom, and at what cost.
type SaleOrder struct {
	shared.OrgAggregateRoot
	OrderNumber    string
	MemberID       uuid.UUID
	ProductID      uuid.UUID
	Quantity       int64
	UnitPriceMinor int64
	UnitCostMinor  int64
	Status         SaleStatus
}

// NewSaleOrder creates a pending sale order
func NewSaleOrder(organizationID, memberID, productID uuid.UUID, orderNumber string, quantity, unitPriceMinor, unitCostMinor int64) (*SaleOrder, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if unitPriceMinor <= 0 {
		return nil, ErrInvalidSaleAmount
	}
	return &SaleOrder{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		OrderNumber:      orderNumber,
		MemberID:         memberID,
		ProductID:        productID,
		Quantity:         quantity,
		UnitPriceMinor:   unitPriceMinor,
		UnitCostMinor:    unitCostMinor,
		Status:           SalePending,
	}, nil
}

// TotalMinor is the sale total
func (s *SaleOrder) TotalMinor() int64 {
	return s.Quantity * s.UnitPriceMinor
}

// TotalCostMinor is the cost of goods for the sale
func (s *SaleOrder) TotalCostMinor() int64 {
	return s.Quantity * s.UnitCostMinor
}

// MarkCompleted closes a settled sale
func (s *SaleOrder) MarkCompleted() error {
	if s.Status != SalePending {
		return ErrSaleNotPending
	}
	s.Status = SaleCompleted
	return nil
}

// MarkCancelled closes a failed or expired sale
func (s *SaleOrder) MarkCancelled() error {
	if s.Status != SalePending {
		return ErrSaleNotPending
	}
	s.Status = SaleCancelled
	return nil
}

// SaleOrderRepository persists sale orders
type SaleOrderRepository interface {
	// Create persists a new sale order. Order numbers are unique per organization.
	Create(ctx context.Context, order *SaleOrder) error

	// FindByOrderNumber finds a sale order by its number within an organization
	FindByOrderNumber(ctx context.Context, organizationID uuid.UUID, orderNumber string) (*SaleOrder, error)

	// SaveWithLock persists changes using optimistic locking on Version
	SaveWithLock(ctx context.Context, order *SaleOrder) error
}
