package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GormJournalRepository implements ledger.JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// Create writes the entry and all its lines in one transaction.
// Readers never observe a partial line set.
func (r *GormJournalRepository) Create(ctx context.Context, entry *ledger.JournalEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	var model models.JournalEntryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := model.Lines
		model.Lines = nil
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return tx.Create(&lines).Error
	})
}

// FindByID loads an entry with its lines
func (r *GormJournalRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference loads the entries posted for one business reference
func (r *GormJournalRepository) FindByReference(ctx context.Context, organizationID uuid.UUID, referenceType, referenceID string) ([]*ledger.JournalEntry, error) {
	var entryModels []models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("organization_id = ? AND reference_type = ? AND reference_id = ?", organizationID, referenceType, referenceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*ledger.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// AccountBalances aggregates posting totals per account over a period.
// A zero from means no lower bound.
func (r *GormJournalRepository) AccountBalances(ctx context.Context, organizationID uuid.UUID, from, to time.Time) ([]ledger.AccountBalance, error) {
	type row struct {
		AccountID     uuid.UUID
		Code          string
		Name          string
		Type          string
		NormalBalance string
		DebitMinor    int64
		CreditMinor   int64
	}

	query := r.db.WithContext(ctx).
		Table("journal_lines AS jl").
		Select(`jl.account_id,
			a.code,
			a.name,
			a.type,
			a.normal_balance,
			COALESCE(SUM(jl.debit_minor), 0) AS debit_minor,
			COALESCE(SUM(jl.credit_minor), 0) AS credit_minor`).
		Joins("JOIN journal_entries je ON je.id = jl.journal_id").
		Joins("JOIN accounts a ON a.id = jl.account_id").
		Where("je.organization_id = ? AND je.transaction_date <= ?", organizationID, to)

	if !from.IsZero() {
		query = query.Where("je.transaction_date >= ?", from)
	}

	var rows []row
	if err := query.
		Group("jl.account_id, a.code, a.name, a.type, a.normal_balance").
		Order("a.code ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	balances := make([]ledger.AccountBalance, len(rows))
	for i, rw := range rows {
		balances[i] = ledger.AccountBalance{
			AccountID:     rw.AccountID,
			Code:          rw.Code,
			Name:          rw.Name,
			Type:          ledger.AccountType(rw.Type),
			NormalBalance: ledger.NormalBalance(rw.NormalBalance),
			DebitMinor:    rw.DebitMinor,
			CreditMinor:   rw.CreditMinor,
		}
	}
	return balances, nil
}

var _ ledger.JournalRepository = (*GormJournalRepository)(nil)
