package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koperasi/backend/internal/domain/retail"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GormSaleOrderRepository implements retail.SaleOrderRepository using GORM
type GormSaleOrderRepository struct {
	db *gorm.DB
}

// NewGormSaleOrderRepository creates a new GormSaleOrderRepository
func NewGormSaleOrderRepository(db *gorm.DB) *GormSaleOrderRepository {
	return &GormSaleOrderRepository{db: db}
}

// Create persists a new sale order
func (r *GormSaleOrderRepository) Create(ctx context.Context, order *retail.SaleOrder) error {
	var model models.SaleOrderModel
	model.FromDomain(order)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByOrderNumber finds a sale order by its number within an organization
func (r *GormSaleOrderRepository) FindByOrderNumber(ctx context.Context, organizationID uuid.UUID, orderNumber string) (*retail.SaleOrder, error) {
	var model models.SaleOrderModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND order_number = ?", organizationID, orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveWithLock persists changes using optimistic locking on Version
func (r *GormSaleOrderRepository) SaveWithLock(ctx context.Context, order *retail.SaleOrder) error {
	expectedVersion := order.Version
	order.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&models.SaleOrderModel{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     string(order.Status),
			"version":    order.Version,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		order.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ retail.SaleOrderRepository = (*GormSaleOrderRepository)(nil)
