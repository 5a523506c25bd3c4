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

// GormStockRepository implements retail.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// Create persists a new stock item
func (r *GormStockRepository) Create(ctx context.Context, item *retail.StockItem) error {
	var model models.StockItemModel
	model.FromDomain(item)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByProductID finds stock for a product within an organization
func (r *GormStockRepository) FindByProductID(ctx context.Context, organizationID, productID uuid.UUID) (*retail.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND product_id = ?", organizationID, productID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveWithLock persists changes using optimistic locking on Version
func (r *GormStockRepository) SaveWithLock(ctx context.Context, item *retail.StockItem) error {
	expectedVersion := item.Version
	item.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Updates(map[string]interface{}{
			"on_hand":    item.OnHand,
			"locked":     item.Locked,
			"version":    item.Version,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		item.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		item.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ retail.StockRepository = (*GormStockRepository)(nil)
