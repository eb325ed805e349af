package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/shared/response"
	"bookstore-fulfillment/pkg/jwt"
)

// Auth xác thực access token và set Identity vào context
func Auth(verifier *jwt.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		sub, err := verifier.Verify(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		role := sub.Role
		if role == "" {
			role = RoleUser
		}

		SetIdentity(c, Identity{UserID: sub.UserID, Role: role})
		c.Next()
	}
}
