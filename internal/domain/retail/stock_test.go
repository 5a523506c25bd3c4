package retail

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koperasi/backend/internal/domain/shared"
)

func TestStockItemLockLifecycle(t *testing.T) {
	item := NewStockItem(uuid.New(), uuid.New(), 10, 30_000)

	t.Run("lock reserves availability", func(t *testing.T) {
		require.NoError(t, item.Lock(4))
		assert.Equal(t, int64(10), item.OnHand)
		assert.Equal(t, int64(6), item.Available())
	})

	t.Run("lock beyond available rejected", func(t *testing.T) {
		assert.ErrorIs(t, item.Lock(7), shared.ErrInsufficientStock)
	})

	t.Run("commit decrements on-hand", func(t *testing.T) {
		require.NoError(t, item.Commit(4))
		assert.Equal(t, int64(6), item.OnHand)
		assert.Zero(t, item.Locked)
	})

	t.Run("release restores availability", func(t *testing.T) {
		require.NoError(t, item.Lock(2))
		require.NoError(t, item.Release(2))
		assert.Equal(t, int64(6), item.Available())
	})

	t.Run("commit beyond locked rejected", func(t *testing.T) {
		assert.ErrorIs(t, item.Commit(1), ErrLockExceedsLocked)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		assert.ErrorIs(t, item.Lock(0), ErrInvalidQuantity)
	})
}
