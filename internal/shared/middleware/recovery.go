package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/shared/response"
	"bookstore-fulfillment/pkg/logger"
)

// Recovery biến panic thành 500 theo envelope chung. Tx đang mở sẽ được
// rollback bởi defer của WithTransaction trước khi panic tới đây.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http dùng ErrAbortHandler để cắt kết nối, giữ nguyên hành vi đó
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.ErrorFields("panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
				"request_id": c.GetString("request_id"),
				"method":     c.Request.Method,
				"route":      c.FullPath(),
				"stack":      string(debug.Stack()),
			})

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.InternalServerError(c, "Internal server error")
			c.Abort()
		}()

		c.Next()
	}
}
