package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics. All methods are
// safe on a nil receiver so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	complaints       *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	chatMessages     *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	ticketCollisions prometheus.Counter
}

// NewMetrics registers collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total error responses by method, route and error code",
		}, []string{"method", "route", "code"}),
		complaints: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Complaints registered by intake channel",
		}, []string{"channel"}),
		statusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_status_changes_total",
			Help: "Complaint status transitions by target status",
		}, []string{"status"}),
		chatMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbot_messages_total",
			Help: "Inbound chat messages by conversation state after handling",
		}, []string{"state"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound citizen notifications by channel and outcome",
		}, []string{"channel", "outcome"}),
		ticketCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticket_id_collisions_total",
			Help: "Generated ticket ids rejected as duplicates",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordComplaint counts a registered complaint.
func (m *Metrics) RecordComplaint(channel string) {
	if m == nil {
		return
	}
	m.complaints.WithLabelValues(channel).Inc()
}

// RecordStatusChange counts a status transition.
func (m *Metrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordChatMessage counts an inbound chat message.
func (m *Metrics) RecordChatMessage(state string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(state).Inc()
}

// RecordNotification counts a notification attempt.
func (m *Metrics) RecordNotification(channel string, delivered bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// RecordTicketCollision counts a duplicate ticket id retry.
func (m *Metrics) RecordTicketCollision() {
	if m == nil {
		return
	}
	m.ticketCollisions.Inc()
}
