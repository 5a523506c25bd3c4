// Package scheduler runs the periodic reconciliation sweep.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/application/checkout"
)

// ReconciliationScheduler triggers reconciliation sweeps on a fixed interval.
// Each run gets its own bounded context so a hung provider cannot stall the
// ticker loop indefinitely.
type ReconciliationScheduler struct {
	reconciler *checkout.ReconciliationService
	interval   time.Duration
	jobTimeout time.Duration
	logger     *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReconciliationScheduler creates a stopped scheduler
func NewReconciliationScheduler(reconciler *checkout.ReconciliationService, interval, jobTimeout time.Duration, logger *zap.Logger) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		reconciler: reconciler,
		interval:   interval,
		jobTimeout: jobTimeout,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the ticker loop. It returns immediately; sweeps run in the
// background until Stop is called.
func (s *ReconciliationScheduler) Start() {
	go s.loop()
	s.logger.Info("reconciliation scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("job_timeout", s.jobTimeout),
	)
}

// Stop halts the ticker and waits for an in-flight sweep to finish
func (s *ReconciliationScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	s.logger.Info("reconciliation scheduler stopped")
}

func (s *ReconciliationScheduler) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce executes one sweep under the job timeout
func (s *ReconciliationScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.Error("reconciliation sweep failed", zap.Error(err))
		return
	}
	if report.Failed > 0 {
		s.logger.Warn("reconciliation sweep left movements unresolved",
			zap.Int("failed", report.Failed),
		)
	}
}
