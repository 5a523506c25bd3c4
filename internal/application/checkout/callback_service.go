package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/payment"
)

// CallbackService receives provider webhooks and converges pending movements
type CallbackService struct {
	checkout  *Service
	movements payment.MovementRepository
	providers *payment.ProviderRegistry
	deduper   payment.CallbackDeduper
	dedupeTTL time.Duration
	logger    *zap.Logger
}

// NewCallbackService creates a new webhook callback service
func NewCallbackService(
	checkout *Service,
	movements payment.MovementRepository,
	providers *payment.ProviderRegistry,
	deduper payment.CallbackDeduper,
	dedupeTTL time.Duration,
	logger *zap.Logger,
) *CallbackService {
	return &CallbackService{
		checkout:  checkout,
		movements: movements,
		providers: providers,
		deduper:   deduper,
		dedupeTTL: dedupeTTL,
		logger:    logger,
	}
}

// HandleCallback verifies, dedupes and applies one provider webhook.
//
// The cache-level dedup is a fast filter against hot redeliveries; the
// operation guard behind Converge is what actually guarantees
// exactly-once effects.
func (c *CallbackService) HandleCallback(ctx context.Context, providerName string, payload []byte, signature string) (*SettlementOutcome, error) {
	provider, err := c.providers.Get(providerName)
	if err != nil {
		return nil, err
	}

	result, err := provider.ParseCallback(ctx, payload, signature)
	if err != nil {
		c.logger.Warn("webhook rejected",
			zap.String("provider", providerName),
			zap.Error(err),
		)
		return nil, err
	}

	sum := sha256.Sum256(payload)
	callbackID := providerName + ":" + hex.EncodeToString(sum[:])
	fresh, err := c.deduper.MarkProcessed(ctx, callbackID, c.dedupeTTL)
	if err != nil {
		// Dedup store trouble must not drop callbacks; the guard still
		// protects against double effects.
		c.logger.Warn("callback dedup store unavailable", zap.Error(err))
	} else if !fresh {
		c.logger.Info("webhook replay suppressed",
			zap.String("provider", providerName),
			zap.String("external_id", result.ExternalID),
		)
		movement, err := c.movements.FindByExternalID(ctx, result.ExternalID)
		if err != nil {
			return nil, err
		}
		return &SettlementOutcome{
			OrderNumber: movement.ReferenceID,
			MovementID:  movement.ID,
			Status:      movement.Status,
			Changed:     false,
		}, nil
	}

	movement, err := c.movements.FindByExternalID(ctx, result.ExternalID)
	if err != nil {
		return nil, err
	}

	outcome, _, err := c.checkout.Converge(ctx, movement, result)
	return outcome, err
}
