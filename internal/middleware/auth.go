package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/admin-dashboard/internal/handler"
	"github.com/jwalitptl/admin-dashboard/pkg/auth"
	apperrors "github.com/jwalitptl/admin-dashboard/pkg/errors"
)

const (
	ContextStaffID   = "staff_id"
	ContextStaffName = "staff_name"
)

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the staff member in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.reject(c, apperrors.Unauthorized("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			m.reject(c, apperrors.Unauthorized("invalid authorization format", nil))
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			m.reject(c, apperrors.Unauthorized("invalid token", err))
			return
		}

		c.Set(ContextStaffID, claims.Subject)
		c.Set(ContextStaffName, claims.Name)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), handler.NewErrorResponse(err.Message))
}
