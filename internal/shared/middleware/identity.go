package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookstore-fulfillment/internal/shared/response"
)

const identityKey = "identity"

// Roles carried in the access token.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Identity is the authenticated caller. Handlers pass it explicitly into
// services; nothing below the handler layer reads the gin context.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set("userID", id.UserID)
	c.Set("role", id.Role)
}

func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RequireRole must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "access denied: insufficient role")
		c.Abort()
	}
}
