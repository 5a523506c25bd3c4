// Package handler contains the gin HTTP handlers for the API surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/loan"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
	"github.com/koperasi/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// operationContext extracts the operation context or writes a 401
func (h *BaseHandler) operationContext(c *gin.Context) (shared.OperationContext, bool) {
	opCtx, ok := middleware.GetOperationContext(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return shared.OperationContext{}, false
	}
	return opCtx, true
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// BindError sends a 400 response for a request binding failure
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	h.BadRequest(c, middleware.ValidationMessage(err))
}

// sentinelCodes maps non-DomainError sentinels to API error codes
var sentinelCodes = []struct {
	err  error
	code string
}{
	{ledger.ErrUnbalancedEntry, dto.ErrCodeUnbalancedEntry},
	{ledger.ErrEmptyEntry, dto.ErrCodeUnbalancedEntry},
	{ledger.ErrInvalidLine, dto.ErrCodeUnbalancedEntry},
	{ledger.ErrInvalidAccount, dto.ErrCodeInvalidAccount},
	{payment.ErrInvalidCallback, dto.ErrCodeInvalidCallback},
	{payment.ErrProviderUnavailable, dto.ErrCodeProviderUnavailable},
	{payment.ErrProviderNotRegistered, dto.ErrCodeNotFound},
	{payment.ErrInvalidStateTransition, dto.ErrCodeInvalidState},
	{payment.ErrAmountMismatch, dto.ErrCodeInvalidCallback},
	{payment.ErrInvalidMovementAmount, dto.ErrCodeBadRequest},
	{loan.ErrInvalidPrincipal, dto.ErrCodeBadRequest},
	{loan.ErrInvalidTenor, dto.ErrCodeBadRequest},
	{loan.ErrInvalidRate, dto.ErrCodeBadRequest},
	{loan.ErrInvalidInterestMethod, dto.ErrCodeBadRequest},
	{loan.ErrAlreadyDisbursed, dto.ErrCodeInvalidState},
	{loan.ErrNotDisbursed, dto.ErrCodeInvalidState},
	{loan.ErrInstallmentNotFound, dto.ErrCodeNotFound},
	{loan.ErrInstallmentAlreadyPaid, dto.ErrCodeInvalidState},
}

// HandleError translates domain errors into API responses. Raw provider and
// database errors never reach the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			h.Error(c, dto.GetHTTPStatus(s.code), s.code, s.err.Error())
			return
		}
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
