package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/persistence/models"
)

// GuardConfig tunes how long a duplicate caller waits on an in-progress
// operation before giving up.
type GuardConfig struct {
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// DefaultGuardConfig returns guard timing suitable for interactive requests
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		WaitTimeout:  5 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}

// GormIdempotencyGuard implements shared.IdempotencyGuard on the database.
//
// The claim is an INSERT against the primary key of idempotency_records; the
// unique constraint is the serialization point, so the guard works across
// processes without any distributed lock.
type GormIdempotencyGuard struct {
	db  *gorm.DB
	cfg GuardConfig
}

// NewGormIdempotencyGuard creates a new database-backed operation guard
func NewGormIdempotencyGuard(db *gorm.DB, cfg GuardConfig) *GormIdempotencyGuard {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultGuardConfig().WaitTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultGuardConfig().PollInterval
	}
	return &GormIdempotencyGuard{db: db, cfg: cfg}
}

// ExecuteOnce runs fn at most once for the key.
//
// The first caller inserts an IN_PROGRESS claim and runs fn; on success the
// record is completed with the result snapshot, on failure the claim is
// released so a clean retry can claim again. Concurrent callers fail to insert,
// then either replay a completed snapshot, wait briefly for the in-flight
// execution, or reject a fingerprint mismatch as key reuse.
func (g *GormIdempotencyGuard) ExecuteOnce(ctx context.Context, key, fingerprint string, fn shared.OperationFunc) ([]byte, bool, error) {
	claimed, record, err := g.claim(ctx, key, fingerprint)
	if err != nil {
		return nil, false, err
	}

	if !claimed {
		if record.Fingerprint != fingerprint {
			return nil, false, shared.ErrDuplicateRequest
		}
		if record.Status == string(shared.IdempotencyCompleted) {
			return record.ResultSnapshot, true, nil
		}
		return g.waitForCompletion(ctx, key, fingerprint)
	}

	snapshot, err := fn(ctx)
	if err != nil {
		if relErr := g.release(ctx, key); relErr != nil {
			return nil, false, errors.Join(err, relErr)
		}
		return nil, false, err
	}

	if err := g.complete(ctx, key, snapshot); err != nil {
		return nil, false, err
	}
	return snapshot, false, nil
}

// claim tries to insert the IN_PROGRESS record. Returns claimed=false with the
// existing record when another caller holds or completed the key.
func (g *GormIdempotencyGuard) claim(ctx context.Context, key, fingerprint string) (bool, *models.IdempotencyRecordModel, error) {
	record := models.IdempotencyRecordModel{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      string(shared.IdempotencyInProgress),
		CreatedAt:   time.Now(),
	}

	result := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return false, nil, result.Error
	}
	if result.RowsAffected > 0 {
		return true, &record, nil
	}

	var existing models.IdempotencyRecordModel
	if err := g.db.WithContext(ctx).Where("key = ?", key).First(&existing).Error; err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

// waitForCompletion polls for the in-flight execution to finish within the
// configured window, then fails with ErrConcurrentOperation.
func (g *GormIdempotencyGuard) waitForCompletion(ctx context.Context, key, fingerprint string) ([]byte, bool, error) {
	deadline := time.Now().Add(g.cfg.WaitTimeout)
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-ticker.C:
		}

		var record models.IdempotencyRecordModel
		err := g.db.WithContext(ctx).Where("key = ?", key).First(&record).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The in-flight execution failed and released its claim; the caller
			// retries from scratch rather than racing for the freed key here.
			return nil, false, shared.ErrConcurrentOperation
		case err != nil:
			return nil, false, err
		}

		if record.Fingerprint != fingerprint {
			return nil, false, shared.ErrDuplicateRequest
		}
		if record.Status == string(shared.IdempotencyCompleted) {
			return record.ResultSnapshot, true, nil
		}
		if time.Now().After(deadline) {
			return nil, false, shared.ErrConcurrentOperation
		}
	}
}

// complete marks the claim COMPLETED with the result snapshot
func (g *GormIdempotencyGuard) complete(ctx context.Context, key string, snapshot []byte) error {
	now := time.Now()
	result := g.db.WithContext(ctx).
		Model(&models.IdempotencyRecordModel{}).
		Where("key = ? AND status = ?", key, string(shared.IdempotencyInProgress)).
		Updates(map[string]interface{}{
			"status":          string(shared.IdempotencyCompleted),
			"result_snapshot": snapshot,
			"completed_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentOperation
	}
	return nil
}

// release drops a failed claim so a retry can run cleanly
func (g *GormIdempotencyGuard) release(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).
		Where("key = ? AND status = ?", key, string(shared.IdempotencyInProgress)).
		Delete(&models.IdempotencyRecordModel{}).Error
}

// Clear removes a record regardless of status. Operator action only.
func (g *GormIdempotencyGuard) Clear(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&models.IdempotencyRecordModel{}).Error
}

var _ shared.IdempotencyGuard = (*GormIdempotencyGuard)(nil)
