package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Syscall metrics
	SyscallsTotal   *prometheus.CounterVec
	SyscallDuration *prometheus.HistogramVec
	TicketTransfers *prometheus.CounterVec

	// Scheduler metrics
	SchedPolicy   prometheus.Gauge
	LiveProcesses prometheus.Gauge
	LiveTickets   prometheus.Gauge
	UptimeTicks   prometheus.Gauge
	TraceEvents   prometheus.Counter
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schedctl_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schedctl_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		SyscallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schedctl_syscalls_total",
				Help: "Total number of dispatched syscalls",
			},
			[]string{"syscall", "status"},
		),
		SyscallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schedctl_syscall_duration_seconds",
				Help:    "Syscall duration in seconds",
				Buckets: []float64{.00001, .0001, .001, .01, .1, 1, 10},
			},
			[]string{"syscall"},
		),
		TicketTransfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schedctl_ticket_transfers_total",
				Help: "Ticket transfer attempts by outcome",
			},
			[]string{"outcome"},
		),

		SchedPolicy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "schedctl_sched_policy",
				Help: "Current global scheduling policy id",
			},
		),
		LiveProcesses: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "schedctl_live_processes",
				Help: "Number of live (non-zombie) processes",
			},
		),
		LiveTickets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "schedctl_live_tickets",
				Help: "Tickets held across live processes",
			},
		),
		UptimeTicks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "schedctl_uptime_ticks",
				Help: "Clock ticks since boot",
			},
		),
		TraceEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "schedctl_trace_events_total",
				Help: "Scheduler trace events published",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSyscall records one dispatched syscall
func (m *Metrics) RecordSyscall(name, status string, duration time.Duration) {
	m.SyscallsTotal.WithLabelValues(name, status).Inc()
	m.SyscallDuration.WithLabelValues(name).Observe(duration.Seconds())
	if name == "transfer_tickets" {
		m.TicketTransfers.WithLabelValues(status).Inc()
	}
}

// ObserveScheduler samples table and scheduler state on a clock tick
func (m *Metrics) ObserveScheduler(tick uint64, live, tickets, policy int) {
	m.UptimeTicks.Set(float64(tick))
	m.LiveProcesses.Set(float64(live))
	m.LiveTickets.Set(float64(tickets))
	m.SchedPolicy.Set(float64(policy))
}

// IncTraceEvents counts a published trace event
func (m *Metrics) IncTraceEvents() {
	m.TraceEvents.Inc()
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
