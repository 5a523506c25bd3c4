package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/application/checkout"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
)

// stubMovements counts sweeps; nothing is ever stale
type stubMovements struct {
	sweeps atomic.Int32
}

func (s *stubMovements) Create(context.Context, *payment.Movement) error { return nil }

func (s *stubMovements) FindByID(context.Context, uuid.UUID, uuid.UUID) (*payment.Movement, error) {
	return nil, shared.ErrNotFound
}

func (s *stubMovements) FindByReference(context.Context, uuid.UUID, string) (*payment.Movement, error) {
	return nil, shared.ErrNotFound
}

func (s *stubMovements) FindByExternalID(context.Context, string) (*payment.Movement, error) {
	return nil, shared.ErrNotFound
}

func (s *stubMovements) SaveWithLock(context.Context, *payment.Movement) error { return nil }

func (s *stubMovements) FindStale(context.Context, time.Time, int) ([]*payment.Movement, error) {
	s.sweeps.Add(1)
	return nil, nil
}

var _ payment.MovementRepository = (*stubMovements)(nil)

func TestSchedulerRunsAndStops(t *testing.T) {
	movements := &stubMovements{}
	reconciler := checkout.NewReconciliationService(nil, movements, payment.NewProviderRegistry(), time.Hour, 10, zap.NewNop())

	s := NewReconciliationScheduler(reconciler, 10*time.Millisecond, time.Second, zap.NewNop())
	s.Start()

	assert.Eventually(t, func() bool {
		return movements.sweeps.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	after := movements.sweeps.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, movements.sweeps.Load(), "no sweeps after Stop")
}
