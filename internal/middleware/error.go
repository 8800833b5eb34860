package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipebook/backend/internal/types"
)

// Recovery turns a panicking handler into a JSON 500 and logs the stack
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
					Error:   types.ErrKindInternal,
					Message: "Internal Server Error",
				})
			}
		}()
		c.Next()
	}
}

// NotFound answers unknown routes with the JSON error shape
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{Error: types.ErrKindNotFound, Message: "route not found"})
}

// MethodNotAllowed answers known routes called with the wrong verb
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, types.ErrorResponse{Error: types.ErrKindPayloadInvalid, Message: "method not allowed"})
}
