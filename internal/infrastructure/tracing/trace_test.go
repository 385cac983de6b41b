package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FromContext(ctx))

	id := New()
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, New())

	ctx = WithTraceID(ctx, id)
	assert.Equal(t, id, FromContext(ctx))
	assert.Equal(t, "trace_id", Field(ctx).Key)
	assert.Equal(t, id.String(), Field(ctx).String)
}

func TestInject(t *testing.T) {
	h := http.Header{}
	Inject(context.Background(), h)
	assert.Empty(t, h.Get(HeaderTraceID))

	Inject(WithTraceID(context.Background(), "abc"), h)
	assert.Equal(t, "abc", h.Get(HeaderTraceID))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMiddleware())

	var seen TraceID
	router.GET("/test", func(c *gin.Context) {
		seen = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("mints an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, string(seen), w.Header().Get(HeaderTraceID))
	})

	t.Run("adopts the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(HeaderTraceID, "from-caller")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, TraceID("from-caller"), seen)
		assert.Equal(t, "from-caller", w.Header().Get(HeaderTraceID))
	})
}
