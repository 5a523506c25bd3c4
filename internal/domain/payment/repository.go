package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MovementRepository persists money movements
type MovementRepository interface {
	// Create persists a new movement. The (organization, reference) pair is
	// unique; a second insert for the same reference must fail.
	Create(ctx context.Context, movement *Movement) error

	// FindByID finds a movement by ID within an organization
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Movement, error)

	// FindByReference finds the movement for a business reference
	FindByReference(ctx context.Context, organizationID uuid.UUID, referenceID string) (*Movement, error)

	// FindByExternalID finds a movement by its provider-side ID
	FindByExternalID(ctx context.Context, externalID string) (*Movement, error)

	// SaveWithLock persists changes using optimistic locking on Version
	SaveWithLock(ctx context.Context, movement *Movement) error

	// FindStale lists pending movements created before the cutoff, oldest
	// first, for the reconciliation job
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]*Movement, error)
}
