package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/logger"
)

// Recovery turns a handler panic into a 500 response and logs the stack
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			log.WithFields(map[string]interface{}{
				"request_id": c.GetString("request_id"),
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"stack":      string(debug.Stack()),
			}).Error("Panic recovered", fmt.Errorf("%v", r))

			util.AbortWithCustomError(c, http.StatusInternalServerError,
				util.ErrCodeInternal, "Internal server error")
		}()

		c.Next()
	}
}
