package middleware

import (
	"net/http"
	"runtime/debug"

	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500. The stack goes to the log only;
// clients get the request id to quote when reporting the failure.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				logger.ErrorCtx(ctx, "panic recovered on %s %s: %v\nstack:\n%s",
					c.Request.Method, c.Request.URL.Path, err, debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal Server Error",
					"request_id": logger.TraceID(ctx),
				})
			}
		}()

		c.Next()
	}
}
