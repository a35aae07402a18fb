package monitoring

import (
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
	// Two collectors must not collide on registration
	a := NewMetrics()
	b := NewMetrics()

	a.RecordSyscall("fork", "ok", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.SyscallsTotal.WithLabelValues("fork", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SyscallsTotal.WithLabelValues("fork", "ok")))
}

func TestRecordSyscallCountsTransfers(t *testing.T) {
	m := NewMetrics()

	m.RecordSyscall("transfer_tickets", "ok", time.Microsecond)
	m.RecordSyscall("transfer_tickets", "insufficient_tickets", time.Microsecond)
	m.RecordSyscall("tickets_owned", "ok", time.Microsecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicketTransfers.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicketTransfers.WithLabelValues("insufficient_tickets")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallsTotal.WithLabelValues("tickets_owned", "ok")))
}

func TestObserveScheduler(t *testing.T) {
	m := NewMetrics()
	m.ObserveScheduler(42, 3, 150, 2)
	m.IncTraceEvents()

	assert.Equal(t, 42.0, testutil.ToFloat64(m.UptimeTicks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LiveProcesses))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.LiveTickets))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SchedPolicy))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TraceEvents))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/processes/:pid", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/processes/7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/processes/:pid", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "schedctl_http_requests_total"))
}
