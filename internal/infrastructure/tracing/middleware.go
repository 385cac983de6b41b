package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware adopts the caller's X-Trace-ID or mints one, stores it on
// the request context and echoes it in the response.
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := TraceID(c.GetHeader(HeaderTraceID))
		if id == "" {
			id = New()
		}

		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), id))
		c.Header(HeaderTraceID, string(id))
		c.Next()
	}
}
