package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	statusUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clearance_status_updates_total",
		Help: "Total clearance status updates applied",
	})
	departmentChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clearance_department_changes_total",
		Help: "Department flags changed by status updates",
	}, []string{"department", "cleared"})
	clearanceCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "clearance_completed_total",
		Help: "Students that became fully cleared",
	})
	notificationsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Notifications persisted, by type",
	}, []string{"type"})
	notificationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_emit_failures_total",
		Help: "Notifications that failed to persist after a status update",
	})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route", "status"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		statusUpdatesTotal,
		departmentChangesTotal,
		clearanceCompletedTotal,
		notificationsEmittedTotal,
		notificationFailuresTotal,
		requestDuration,
	)
}

// IncStatusUpdate counts an applied status update.
func IncStatusUpdate() {
	statusUpdatesTotal.Inc()
}

// IncDepartmentChange counts a single department flag change.
func IncDepartmentChange(department string, cleared bool) {
	departmentChangesTotal.WithLabelValues(department, strconv.FormatBool(cleared)).Inc()
}

// IncClearanceCompleted counts a student reaching full clearance.
func IncClearanceCompleted() {
	clearanceCompletedTotal.Inc()
}

// IncNotificationEmitted counts a persisted notification.
func IncNotificationEmitted(kind string) {
	notificationsEmittedTotal.WithLabelValues(kind).Inc()
}

// IncNotificationFailure counts a notification that could not be persisted.
func IncNotificationFailure() {
	notificationFailuresTotal.Inc()
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, durationMs float64) {
	if durationMs < 0 {
		durationMs = 0
	}
	if route == "" {
		route = "unmatched"
	}
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durationMs)
}

// Registry exposes the collector registry.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
