package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koperasi/backend/internal/domain/loan"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GormLoanRepository implements loan.Repository using GORM
type GormLoanRepository struct {
	db *gorm.DB
}

// NewGormLoanRepository creates a new GormLoanRepository
func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

// Create persists a new loan
func (r *GormLoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	var model models.LoanModel
	model.FromDomain(l)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a loan by ID within an organization
func (r *GormLoanRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*loan.Loan, error) {
	var model models.LoanModel
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

// SaveWithLock persists loan changes using optimistic locking on Version
func (r *GormLoanRepository) SaveWithLock(ctx context.Context, l *loan.Loan) error {
	expectedVersion := l.Version
	l.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&models.LoanModel{}).
		Where("id = ? AND version = ?", l.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       string(l.Status),
			"disbursed_at": l.DisbursedAt,
			"version":      l.Version,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		l.Version = expectedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		l.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CreateSchedule persists the full schedule atomically.
// Fails with shared.ErrAlreadyExists if any line exists for the loan: schedules
// are generated once and never regenerated.
func (r *GormLoanRepository) CreateSchedule(ctx context.Context, loanID uuid.UUID, schedule []loan.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LoanInstallmentModel{}).
			Where("loan_id = ?", loanID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrAlreadyExists
		}

		installmentModels := make([]models.LoanInstallmentModel, len(schedule))
		for i, inst := range schedule {
			installmentModels[i].FromDomain(inst)
		}
		return tx.Create(&installmentModels).Error
	})
}

// FindSchedule loads the schedule ordered by installment number
func (r *GormLoanRepository) FindSchedule(ctx context.Context, loanID uuid.UUID) ([]loan.Installment, error) {
	var installmentModels []models.LoanInstallmentModel
	if err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("installment_no ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}
	schedule := make([]loan.Installment, len(installmentModels))
	for i := range installmentModels {
		schedule[i] = installmentModels[i].ToDomain()
	}
	return schedule, nil
}

// SaveInstallment persists changes to one schedule line
func (r *GormLoanRepository) SaveInstallment(ctx context.Context, installment *loan.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&models.LoanInstallmentModel{}).
		Where("id = ?", installment.ID).
		Updates(map[string]interface{}{
			"status":  string(installment.Status),
			"paid_at": installment.PaidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ loan.Repository = (*GormLoanRepository)(nil)
