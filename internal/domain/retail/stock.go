package retail

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/koperasi/backend/internal/domain/shared"
)

var (
	// ErrInvalidQuantity is returned when a quantity is not positive
	ErrInvalidQuantity = errors.New("retail: quantity must be positive")
	// ErrLockExceedsLocked is returned when releasing or committing more than is locked
	ErrLockExceedsLocked = errors.New("retail: quantity exceeds locked stock")
)

// StockItem is sellable stock split into on-hand and locked quantities.
// Checkout locks stock during the saga and commits the lock into a real
// decrement only after settlement.
type StockItem struct {
	shared.OrgAggregateRoot
	ProductID     uuid.UUID
	OnHand        int64
	Locked        int64
	UnitCostMinor int64
}

// NewStockItem creates stock for a product
func NewStockItem(organizationID, productID uuid.UUID, onHand, unitCostMinor int64) *StockItem {
	return &StockItem{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(organizationID),
		ProductID:        productID,
		OnHand:           onHand,
		UnitCostMinor:    unitCostMinor,
	}
}

// Available is the quantity not reserved by in-flight checkouts
func (s *StockItem) Available() int64 {
	return s.OnHand - s.Locked
}

// Lock reserves quantity for an in-flight checkout
func (s *StockItem) Lock(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Available() < qty {
		return shared.ErrInsufficientStock
	}
	s.Locked += qty
	return nil
}

// Release returns reserved quantity to availability
func (s *StockItem) Release(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Locked < qty {
		return ErrLockExceedsLocked
	}
	s.Locked -= qty
	return nil
}

// Commit turns reserved quantity into a permanent decrement
func (s *StockItem) Commit(qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.Locked < qty {
		return ErrLockExceedsLocked
	}
	s.Locked -= qty
	s.OnHand -= qty
	return nil
}

// StockRepository persists stock items
type StockRepository interface {
	Create(ctx context.Context, item *StockItem) error

	// FindByProductID finds stock for a product within an organization
	FindByProductID(ctx context.Context, organizationID, productID uuid.UUID) (*StockItem, error)

	// SaveWithLock persists changes using optimistic locking on Version
	SaveWithLock(ctx context.Context, item *StockItem) error
}
