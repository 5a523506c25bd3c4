package shared

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStatus is the lifecycle state of an idempotency record
type IdempotencyStatus string

const (
	// IdempotencyInProgress marks an operation that has been claimed but not finished
	IdempotencyInProgress IdempotencyStatus = "IN_PROGRESS"
	// IdempotencyCompleted marks an operation whose result snapshot is stored
	IdempotencyCompleted IdempotencyStatus = "COMPLETED"
)

// IdempotencyRecord is the persisted claim for one logical operation.
// It is created atomically with the first attempt, read-and-returned on
// retries, and never updated after completion. Records are cleared only by
// explicit operator action.
type IdempotencyRecord struct {
	Key            string
	Fingerprint    string
	Status         IdempotencyStatus
	ResultSnapshot []byte
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// OperationFunc is the side-effecting body guarded by ExecuteOnce.
// It returns a JSON snapshot of its result for replay to later callers.
type OperationFunc func(ctx context.Context) ([]byte, error)

// IdempotencyGuard serializes execution per idempotency key.
//
// For a given key, at most one OperationFunc execution is ever in flight or
// has ever completed. The claim insert is the serialization point; it must be
// backed by a storage-level unique constraint or an equivalent
// exclusive-acquire primitive, never by an in-process lock.
type IdempotencyGuard interface {
	// ExecuteOnce runs fn at most once for the key.
	//
	// If a completed record exists, its snapshot is returned with replayed=true
	// and fn is not run. If an in-progress record exists, the call waits a
	// bounded time for completion and then fails with ErrConcurrentOperation.
	// If the stored fingerprint differs from the supplied one the key was
	// reused for different parameters and ErrDuplicateRequest is returned.
	// On fn failure the claim is released so a retry can proceed cleanly.
	ExecuteOnce(ctx context.Context, key, fingerprint string, fn OperationFunc) (snapshot []byte, replayed bool, err error)

	// Clear removes a record. Operator action only; normal flows never call it.
	Clear(ctx context.Context, key string) error
}

// DeriveKey builds a deterministic idempotency key for callers that did not
// supply one. Two retries of the same logical request hash to the same key;
// any parameter drift produces a different key.
func DeriveKey(operation, referenceID string, actorID uuid.UUID, amountMinor int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%d", operation, referenceID, actorID, amountMinor))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the full request parameters so key reuse with different
// payloads can be detected and rejected.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
