package payment

import (
	"context"
	"time"
)

// CallbackDeduper suppresses webhook replays before any database work is
// attempted. It is a fast-path filter only: the operation guard remains the
// authority on whether a callback's effects were applied.
type CallbackDeduper interface {
	// MarkProcessed records a callback ID with a TTL. Returns true if the ID
	// was newly recorded, false if it was already seen.
	MarkProcessed(ctx context.Context, callbackID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the callback ID has been seen
	IsProcessed(ctx context.Context, callbackID string) (bool, error)
}
