package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/payment"
)

// ReconciliationReport summarizes one reconciliation sweep
type ReconciliationReport struct {
	Scanned   int `json:"scanned"`
	Converged int `json:"converged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ReconciliationService sweeps stale pending movements and converges them
// against the provider's authoritative status. It routes every change through
// the same guard keys as the webhook path, so a late webhook racing the sweep
// still produces exactly one outcome.
type ReconciliationService struct {
	checkout   *Service
	movements  payment.MovementRepository
	providers  *payment.ProviderRegistry
	staleAfter time.Duration
	batchSize  int
	logger     *zap.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	checkout *Service,
	movements payment.MovementRepository,
	providers *payment.ProviderRegistry,
	staleAfter time.Duration,
	batchSize int,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		checkout:   checkout,
		movements:  movements,
		providers:  providers,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Run performs one reconciliation sweep
func (r *ReconciliationService) Run(ctx context.Context) (*ReconciliationReport, error) {
	cutoff := time.Now().Add(-r.staleAfter)
	stale, err := r.movements.FindStale(ctx, cutoff, r.batchSize)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{Scanned: len(stale)}
	for _, movement := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		switch r.reconcileOne(ctx, movement) {
		case reconcileConverged:
			report.Converged++
		case reconcileSkipped:
			report.Skipped++
		case reconcileFailed:
			report.Failed++
		}
	}

	r.logger.Info("reconciliation sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("converged", report.Converged),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

type reconcileResult int

const (
	reconcileConverged reconcileResult = iota
	reconcileSkipped
	reconcileFailed
)

// reconcileOne converges a single stale movement
func (r *ReconciliationService) reconcileOne(ctx context.Context, movement *payment.Movement) reconcileResult {
	now := time.Now()

	// Internal-method movements have no provider to ask. A stale pending one
	// means an interrupted saga: if the journal entry was already posted the
	// money moved and the settlement is finished forward; otherwise nothing
	// happened and the sale is closed as expired.
	if !movement.Method.IsExternal() || movement.Provider == "" {
		posted, err := r.checkout.journals.FindByReference(ctx, movement.OrganizationID, movement.ReferenceType, movement.ReferenceID)
		if err != nil {
			r.logger.Error("journal lookup failed for stale movement",
				zap.String("reference_id", movement.ReferenceID),
				zap.Error(err),
			)
			return reconcileFailed
		}
		if len(posted) > 0 {
			return r.converge(ctx, movement, payment.StatusSuccess, "settlement interrupted after posting")
		}
		return r.converge(ctx, movement, payment.StatusExpired, "settlement interrupted")
	}

	provider, err := r.providers.Get(movement.Provider)
	if err != nil {
		r.logger.Error("stale movement references unknown provider",
			zap.String("reference_id", movement.ReferenceID),
			zap.String("provider", movement.Provider),
		)
		return reconcileFailed
	}

	status, err := provider.QueryStatus(ctx, movement.ExternalID)
	switch {
	case errors.Is(err, payment.ErrProviderUnavailable):
		// Transient; the next sweep retries.
		r.logger.Warn("provider unavailable, deferring movement",
			zap.String("reference_id", movement.ReferenceID),
		)
		return reconcileSkipped
	case errors.Is(err, payment.ErrIntentNotFound):
		r.logger.Error("provider does not know the intent",
			zap.String("reference_id", movement.ReferenceID),
			zap.String("external_id", movement.ExternalID),
		)
		return reconcileFailed
	case err != nil:
		r.logger.Error("provider status query failed",
			zap.String("reference_id", movement.ReferenceID),
			zap.Error(err),
		)
		return reconcileFailed
	}

	if status == payment.StatusPending {
		if movement.IsExpired(now) {
			return r.converge(ctx, movement, payment.StatusExpired, "payment window elapsed")
		}
		return reconcileSkipped
	}

	return r.converge(ctx, movement, status, "reconciled from provider status")
}

// converge routes a terminal status through the shared settlement path
func (r *ReconciliationService) converge(ctx context.Context, movement *payment.Movement, status payment.Status, reason string) reconcileResult {
	result := &payment.CallbackResult{
		ExternalID:  movement.ExternalID,
		Status:      status,
		AmountMinor: movement.AmountMinor,
		Reason:      reason,
	}
	if _, _, err := r.checkout.Converge(ctx, movement, result); err != nil {
		r.logger.Error("reconciliation convergence failed",
			zap.String("reference_id", movement.ReferenceID),
			zap.String("target_status", status.String()),
			zap.Error(err),
		)
		return reconcileFailed
	}
	return reconcileConverged
}
