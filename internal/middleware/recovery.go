package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/logger"
)

// RecoveryMiddleware turns a panic in a handler into a 500 dto.ErrorResponse.
//
// The panic value and stack are logged with the request id and the matched
// route; the client only sees the generic message.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			rid, _ := c.Get(RequestIDKey)
			logger.L().Error().
				Str("request_id", toString(rid)).
				Str("method", c.Request.Method).
				Str("route", routeOf(c)).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			AbortWithError(c, http.StatusInternalServerError, "internal server error", fmt.Errorf("%v", r))
		}()

		c.Next()
	}
}

// routeOf returns the route template, or the raw path for unmatched requests.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return c.Request.URL.Path
}
