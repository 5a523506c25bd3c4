package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GormMovementRepository implements payment.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create persists a new movement. The unique index on
// (organization_id, reference_id) rejects a second movement for the same
// business reference.
func (r *GormMovementRepository) Create(ctx context.Context, movement *payment.Movement) error {
	var model models.MovementModel
	model.FromDomain(movement)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a movement by ID within an organization
func (r *GormMovementRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*payment.Movement, error) {
	var model models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds the movement for a business reference
func (r *GormMovementRepository) FindByReference(ctx context.Context, organizationID uuid.UUID, referenceID string) (*payment.Movement, error) {
	var model models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND reference_id = ?", organizationID, referenceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a movement by its provider-side ID
func (r *GormMovementRepository) FindByExternalID(ctx context.Context, externalID string) (*payment.Movement, error) {
	var model models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveWithLock persists changes using optimistic locking on Version.
// Returns shared.ErrConcurrencyConflict when another writer moved the version.
func (r *GormMovementRepository) SaveWithLock(ctx context.Context, movement *payment.Movement) error {
	expectedVersion := movement.Version
	movement.IncrementVersion()

	var model models.MovementModel
	model.FromDomain(movement)

	result := r.db.WithContext(ctx).
		Model(&models.MovementModel{}).
		Where("id = ? AND version = ?", movement.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":          model.Status,
			"provider":        model.Provider,
			"external_id":     model.ExternalID,
			"expires_at":      model.ExpiresAt,
			"webhook_payload": model.WebhookPayload,
			"failure_reason":  model.FailureReason,
			"settled_at":      model.SettledAt,
			"version":         movement.Version,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		movement.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		movement.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindStale lists pending movements created before the cutoff, oldest first
func (r *GormMovementRepository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]*payment.Movement, error) {
	var movementModels []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", payment.StatusPending.String(), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&movementModels).Error; err != nil {
		return nil, err
	}
	movements := make([]*payment.Movement, len(movementModels))
	for i := range movementModels {
		movements[i] = movementModels[i].ToDomain()
	}
	return movements, nil
}

var _ payment.MovementRepository = (*GormMovementRepository)(nil)
