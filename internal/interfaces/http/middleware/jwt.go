// Package middleware holds the gin middleware for the API surface.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/auth"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

const (
	operationContextKey = "operation_context"
	authHeaderKey       = "Authorization"
	bearerPrefix        = "Bearer "
)

// JWTAuth validates the bearer token and stores the resulting operation
// context for handlers. Every financial operation is attributed to the actor
// and organization from the token; there is no ambient user state.
func JWTAuth(jwtService *auth.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authHeaderKey)
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			logger.Warn("token validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			message := "Invalid token"
			if err == auth.ErrExpiredToken {
				message = "Token has expired"
			}
			abortUnauthorized(c, message)
			return
		}

		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			abortUnauthorized(c, "Invalid actor identity")
			return
		}
		organizationID, err := uuid.Parse(claims.OrganizationID)
		if err != nil {
			abortUnauthorized(c, "Invalid organization identity")
			return
		}

		c.Set(operationContextKey, shared.NewOperationContext(actorID, organizationID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}

// GetOperationContext retrieves the operation context set by JWTAuth
func GetOperationContext(c *gin.Context) (shared.OperationContext, bool) {
	v, exists := c.Get(operationContextKey)
	if !exists {
		return shared.OperationContext{}, false
	}
	opCtx, ok := v.(shared.OperationContext)
	return opCtx, ok
}
