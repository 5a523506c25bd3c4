package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koperasi/backend/internal/domain/member"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GormSavingsAccountRepository implements member.Repository using GORM
type GormSavingsAccountRepository struct {
	db *gorm.DB
}

// NewGormSavingsAccountRepository creates a new GormSavingsAccountRepository
func NewGormSavingsAccountRepository(db *gorm.DB) *GormSavingsAccountRepository {
	return &GormSavingsAccountRepository{db: db}
}

// Create persists a new savings account
func (r *GormSavingsAccountRepository) Create(ctx context.Context, account *member.SavingsAccount) error {
	var model models.SavingsAccountModel
	model.FromDomain(account)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByMemberID finds a member's savings account within an organization
func (r *GormSavingsAccountRepository) FindByMemberID(ctx context.Context, organizationID, memberID uuid.UUID) (*member.SavingsAccount, error) {
	var model models.SavingsAccountModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveWithLock persists changes using optimistic locking on Version
func (r *GormSavingsAccountRepository) SaveWithLock(ctx context.Context, account *member.SavingsAccount) error {
	expectedVersion := account.Version
	account.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&models.SavingsAccountModel{}).
		Where("id = ? AND version = ?", account.ID, expectedVersion).
		Updates(map[string]interface{}{
			"balance_minor": account.BalanceMinor,
			"hold_minor":    account.HoldMinor,
			"version":       account.Version,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		account.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		account.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ member.Repository = (*GormSavingsAccountRepository)(nil)
