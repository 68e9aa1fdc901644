package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Deployment metrics
	DeploymentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ring_deployments_total",
			Help: "Current number of deployments by namespace and status",
		},
		[]string{"namespace", "status"},
	)

	DeploymentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_deployments_created_total",
			Help: "Total number of deployments created, by namespace",
		},
		[]string{"namespace"},
	)

	DeploymentsRolledBackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_deployments_rolled_back_total",
			Help: "Total number of deployments rolled back, by namespace",
		},
		[]string{"namespace"},
	)

	ConfigsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ring_configs_total",
			Help: "Current number of configs",
		},
	)

	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ring_users_total",
			Help: "Current number of users",
		},
	)

	// Event metrics
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_events_total",
			Help: "Total number of deployment events emitted, by level",
		},
		[]string{"level"},
	)

	// Health check metrics
	HealthCheckResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_health_check_results_total",
			Help: "Total number of health check results recorded, by status",
		},
		[]string{"status"},
	)

	// Container/reconciler metrics, observed by pkg/runtime's Apply loop
	ContainersScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ring_containers_scheduled_total",
			Help: "Total number of containers scheduled",
		},
	)

	ContainersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ring_containers_failed_total",
			Help: "Total number of containers that failed to schedule",
		},
	)

	ContainerCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ring_container_create_duration_seconds",
			Help:    "Time taken to create a container in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ring_reconciliation_duration_seconds",
			Help:    "Time taken for a scheduler apply cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ring_reconciliation_cycles_total",
			Help: "Total number of scheduler apply cycles completed",
		},
	)

	// API metrics, observed by pkg/api's request logging middleware
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ring_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ring_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(DeploymentsTotal)
	prometheus.MustRegister(DeploymentsCreatedTotal)
	prometheus.MustRegister(DeploymentsRolledBackTotal)
	prometheus.MustRegister(ConfigsTotal)
	prometheus.MustRegister(UsersTotal)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(HealthCheckResultsTotal)
	prometheus.MustRegister(ContainersScheduled)
	prometheus.MustRegister(ContainersFailed)
	prometheus.MustRegister(ContainerCreateDuration)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
