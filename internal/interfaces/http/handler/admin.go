package handler

import (
	"github.com/gin-gonic/gin"

	checkoutapp "github.com/koperasi/backend/internal/application/checkout"
)

// AdminHandler exposes operator actions
type AdminHandler struct {
	BaseHandler
	reconciler *checkoutapp.ReconciliationService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(reconciler *checkoutapp.ReconciliationService) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

// RunReconciliation triggers one reconciliation sweep outside the scheduler
func (h *AdminHandler) RunReconciliation(c *gin.Context) {
	if _, ok := h.operationContext(c); !ok {
		return
	}

	report, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/reconciliation/run", h.RunReconciliation)
}
