package handler

import (
	"github.com/gin-gonic/gin"

	checkoutapp "github.com/koperasi/backend/internal/application/checkout"
)

// SignatureHeader carries the provider's HMAC signature over the raw payload
const SignatureHeader = "X-Callback-Signature"

// WebhookHandler receives payment provider callbacks. It sits outside the
// authenticated API group; callbacks authenticate by signature.
type WebhookHandler struct {
	BaseHandler
	callbacks *checkoutapp.CallbackService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(callbacks *checkoutapp.CallbackService) *WebhookHandler {
	return &WebhookHandler{callbacks: callbacks}
}

// PaymentCallback applies one provider webhook. The raw body is handed to the
// provider adapter untouched so signature verification sees exactly the bytes
// the provider signed.
func (h *WebhookHandler) PaymentCallback(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Unreadable callback payload")
		return
	}

	outcome, err := h.callbacks.HandleCallback(
		c.Request.Context(),
		c.Param("provider"),
		payload,
		c.GetHeader(SignatureHeader),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payment/:provider", h.PaymentCallback)
}
