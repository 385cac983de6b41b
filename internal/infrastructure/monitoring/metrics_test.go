package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordFrameRouted("show_notification")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FramesRouted.WithLabelValues("show_notification")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FramesRouted.WithLabelValues("show_notification")))
}

func TestConnectionStateIsOneHot(t *testing.T) {
	m := NewMetrics()
	m.SetConnectionState("open")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ConnectionState.WithLabelValues("idle")))
	assert.Equal(t, "open", m.Snapshot().State)
}

func TestSnapshotCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordFrameRouted("show_insight")
	m.RecordFrameDropped("unknown_kind")
	m.RecordReconnect(1, time.Second)
	m.RecordHTTPRequest("GET", "/ui/state", "500", time.Millisecond, 0, 10)
	m.IncWSConnections()

	s := m.Snapshot()
	assert.Equal(t, int64(1), s.FramesRouted)
	assert.Equal(t, int64(1), s.FramesDropped)
	assert.Equal(t, int64(1), s.Reconnects)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(1), s.ActiveConnections)

	m.DecWSConnections()
	assert.Equal(t, int64(0), m.Snapshot().ActiveConnections)
}

func TestCollectionSize(t *testing.T) {
	m := NewMetrics()
	m.CollectionSize("cards", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CollectionSizes.WithLabelValues("cards")))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()
	NewTimer(m).Stop(nil)
	NewTimer(m).Stop(errors.New("boom"))
	NewTimer(nil).Stop(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignerCalls.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignerCalls.WithLabelValues("error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/ui/cards/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui/cards/card_1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/ui/cards/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "uistream_http_requests_total"))
	assert.True(t, strings.Contains(body, "uistream_uptime_seconds"))
}
