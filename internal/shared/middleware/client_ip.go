package middleware

import (
	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/shared/utils"
)

const clientIPKey = "client_ip"

// ClientIP resolves the caller IP once; VNPay needs it as vnp_IpAddr.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientIPKey, utils.ExtractClientIP(c))
		c.Next()
	}
}

func GetClientIP(c *gin.Context) string {
	if ip := c.GetString(clientIPKey); ip != "" {
		return ip
	}
	return utils.ExtractClientIP(c)
}
