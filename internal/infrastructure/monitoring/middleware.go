package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Route template keeps label cardinality bounded (/ui/cards/:id/dismiss)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		metrics.RecordHTTPRequest(method, path, status, duration, reqSize, respSize)
	}
}

// Timer measures a signing call
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer. A nil metrics makes Stop a no-op.
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// Stop records the duration with a status derived from err
func (t *Timer) Stop(err error) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordSignerCall(statusLabel(err), time.Since(t.start))
}
