package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/koperasi/backend/internal/application/ledger"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

// LedgerHandler handles journal posting and financial report endpoints
type LedgerHandler struct {
	BaseHandler
	ledger *ledgerapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *ledgerapp.Service) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// PostJournal posts a manual journal entry
func (h *LedgerHandler) PostJournal(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}

	var input ledgerapp.PostJournalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}

	entry, err := h.ledger.PostJournal(c.Request.Context(), opCtx, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ReverseJournalRequest asks for a correcting entry against an existing one
type ReverseJournalRequest struct {
	TransactionDate time.Time `json:"transaction_date" binding:"required"`
	Description     string    `json:"description" binding:"required"`
}

// ReverseJournal posts the reversal of an existing entry
func (h *LedgerHandler) ReverseJournal(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid journal ID")
		return
	}
	var req ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	reversal, err := h.ledger.ReverseJournal(c.Request.Context(), opCtx, uri.ID, req.TransactionDate, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reversal)
}

// TrialBalance returns the trial balance as of a date
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	asOf, ok := h.dateQuery(c, "as_of", time.Now())
	if !ok {
		return
	}

	tb, err := h.ledger.TrialBalance(c.Request.Context(), opCtx, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}

// BalanceSheet returns the statement of financial position as of a date
func (h *LedgerHandler) BalanceSheet(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	asOf, ok := h.dateQuery(c, "as_of", time.Now())
	if !ok {
		return
	}

	bs, err := h.ledger.BalanceSheet(c.Request.Context(), opCtx, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bs)
}

// IncomeStatement returns the income statement over a period
func (h *LedgerHandler) IncomeStatement(c *gin.Context) {
	opCtx, ok := h.operationContext(c)
	if !ok {
		return
	}
	from, ok := h.dateQuery(c, "from", time.Time{})
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to", time.Now())
	if !ok {
		return
	}

	is, err := h.ledger.IncomeStatement(c.Request.Context(), opCtx, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, is)
}

// dateQuery parses an optional YYYY-MM-DD query parameter
func (h *LedgerHandler) dateQuery(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.POST("/journals", h.PostJournal)
		ledger.POST("/journals/:id/reverse", h.ReverseJournal)
		ledger.GET("/trial-balance", h.TrialBalance)
		ledger.GET("/balance-sheet", h.BalanceSheet)
		ledger.GET("/income-statement", h.IncomeStatement)
	}
}
