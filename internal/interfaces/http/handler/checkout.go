package handler

import (
	"github.com/gin-gonic/gin"

	checkoutapp "github.com/koperasi/backend/internal/application/checkout"
)

// IdempotencyKeyHeader carries the client-chosen idempotency key. When absent
// a deterministic key is derived from the request.
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler handles retail checkout endpoints
type CheckoutHandler struct {
	BaseHandler
	checkout *checkoutapp.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout *checkoutapp.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Checkout runs the settlement saga for one sale
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}

	var input checkoutapp.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}
	input.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	result, replayed, err := h.checkout.Checkout(c.Request.Context(), opCtx, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Checkout)
}
