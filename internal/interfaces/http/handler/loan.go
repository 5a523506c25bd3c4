package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	loanapp "github.com/koperasi/backend/internal/application/loan"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

// LoanHandler handles loan origination, disbursement and repayment endpoints
type LoanHandler struct {
	BaseHandler
	loans *loanapp.Service
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loans *loanapp.Service) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// CreateLoan registers a pending loan
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}

	var input loanapp.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.loans.CreateLoan(c.Request.Context(), opCtx, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, l)
}

// DisburseRequest starts the repayment clock for an approved loan
type DisburseRequest struct {
	FirstDueDate time.Time `json:"first_due_date" binding:"required"`
}

// Disburse activates a loan and posts the cash outflow
func (h *LoanHandler) Disburse(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	loanID, ok := h.loanID(c)
	if !ok {
		return
	}
	var req DisburseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, replayed, err := h.loans.Disburse(c.Request.Context(), opCtx, loanID, req.FirstDueDate)
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

// RepayRequest settles one installment
type RepayRequest struct {
	InstallmentNo int `json:"installment_no" binding:"required,min=1"`
}

// Repay settles one installment in cash
func (h *LoanHandler) Repay(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	loanID, ok := h.loanID(c)
	if !ok {
		return
	}
	var req RepayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, replayed, err := h.loans.Repay(c.Request.Context(), opCtx, loanID, req.InstallmentNo)
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

// Schedule returns the amortization schedule
func (h *LoanHandler) Schedule(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	loanID, ok := h.loanID(c)
	if !ok {
		return
	}

	schedule, err := h.loans.Schedule(c.Request.Context(), opCtx, loanID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, schedule)
}

// loanID parses the loan ID path parameter
func (h *LoanHandler) loanID(c *gin.Context) (uuid.UUID, bool) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid loan ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(uri.ID)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID")
		return uuid.Nil, false
	}
	return id, true
}

// RegisterRoutes registers loan routes
func (h *LoanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	loans := rg.Group("/loans")
	{
		loans.POST("", h.CreateLoan)
		loans.POST("/:id/disburse", h.Disburse)
		loans.POST("/:id/repayments", h.Repay)
		loans.GET("/:id/schedule", h.Schedule)
	}
}
