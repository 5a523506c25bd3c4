package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/payment"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient balance is a safe rejection",
			err:        shared.ErrInsufficientBalance,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInsufficientBalance,
		},
		{
			name:       "concurrent operation asks for a retry",
			err:        shared.ErrConcurrentOperation,
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeConcurrentOperation,
		},
		{
			name:       "duplicate request is a conflict",
			err:        shared.ErrDuplicateRequest,
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeDuplicateRequest,
		},
		{
			name:       "wrapped unbalanced entry keeps its code",
			err:        fmt.Errorf("posting failed: %w", ledger.ErrUnbalancedEntry),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeUnbalancedEntry,
		},
		{
			name:       "invalid callback is a bad request",
			err:        fmt.Errorf("%w: bad signature", payment.ErrInvalidCallback),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidCallback,
		},
		{
			name:       "provider downtime maps to service unavailable",
			err:        payment.ErrProviderUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrCodeProviderUnavailable,
		},
		{
			name:       "not found",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "unknown errors stay opaque",
			err:        fmt.Errorf("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			var h BaseHandler
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}
