package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/koperasi/backend/internal/domain/payment"
)

func newTestMovement(t *testing.T) *payment.Movement {
	t.Helper()
	mv, err := payment.NewMovement(
		uuid.New(),
		payment.MovementRetailSale,
		"sale_order",
		"SALE-001",
		payment.MethodSavingsBalance,
		50_000,
	)
	require.NoError(t, err)
	return mv
}
