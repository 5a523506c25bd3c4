package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
)

// SettlementOutcome records what a settlement attempt did to a pending sale
type SettlementOutcome struct {
	OrderNumber string         `json:"order_number"`
	MovementID  uuid.UUID      `json:"movement_id"`
	Status      payment.Status `json:"status"`
	JournalID   *uuid.UUID     `json:"journal_id,omitempty"`
	Changed     bool           `json:"changed"`
}

// Converge folds a provider-reported outcome into a pending movement.
//
// Both the webhook path and the reconciliation sweep call this with the same
// derived key, so whichever arrives first wins and the other replays its
// outcome. A redelivered result that matches the current state is a no-op.
func (s *Service) Converge(ctx context.Context, movement *payment.Movement, result *payment.CallbackResult) (*SettlementOutcome, bool, error) {
	key := shared.DeriveKey("settle", movement.ReferenceID, movement.OrganizationID, movement.AmountMinor)
	fingerprint := shared.Fingerprint("settle", movement.ReferenceID)

	snapshot, replayed, err := s.guard.ExecuteOnce(ctx, key, fingerprint, func(ctx context.Context) ([]byte, error) {
		outcome, err := s.applySettlement(ctx, movement, result)
		if err != nil {
			return nil, err
		}
		return json.Marshal(outcome)
	})
	if err != nil {
		return nil, false, err
	}

	var outcome SettlementOutcome
	if err := json.Unmarshal(snapshot, &outcome); err != nil {
		return nil, false, fmt.Errorf("corrupt settlement snapshot: %w", err)
	}
	return &outcome, replayed, nil
}

// applySettlement mutates the movement per the provider result and finalizes
// or cancels the sale accordingly
func (s *Service) applySettlement(ctx context.Context, movement *payment.Movement, result *payment.CallbackResult) (*SettlementOutcome, error) {
	now := time.Now()

	// Reload so the state transition runs against current data, not whatever
	// the caller fetched before entering the guard.
	current, err := s.movements.FindByReference(ctx, movement.OrganizationID, movement.ReferenceID)
	if err != nil {
		return nil, err
	}

	changed, err := current.ApplyCallback(result, now)
	if err != nil {
		s.logger.Error("provider result rejected",
			zap.String("reference_id", current.ReferenceID),
			zap.String("current_status", current.Status.String()),
			zap.String("reported_status", result.Status.String()),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := &SettlementOutcome{
		OrderNumber: current.ReferenceID,
		MovementID:  current.ID,
		Status:      current.Status,
		Changed:     changed,
	}
	if !changed {
		return outcome, nil
	}

	order, err := s.sales.FindByOrderNumber(ctx, current.OrganizationID, current.ReferenceID)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case payment.StatusSuccess:
		journalID, err := s.finalize(ctx, order, current)
		if err != nil {
			return nil, err
		}
		outcome.JournalID = &journalID
	case payment.StatusFailed, payment.StatusExpired:
		if err := s.cancel(ctx, order, current); err != nil {
			return nil, err
		}
	}

	s.logger.Info("pending sale converged",
		zap.String("order_number", current.ReferenceID),
		zap.String("status", current.Status.String()),
	)
	return outcome, nil
}
