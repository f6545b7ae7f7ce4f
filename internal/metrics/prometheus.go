package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "triage"

// Prometheus implements Metrics on a private registry
type Prometheus struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	classifications  *prometheus.CounterVec
	directoryLookups *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	triageDuration   prometheus.Histogram
	dbConnections    prometheus.Gauge
	dbQueries        *prometheus.CounterVec
}

// NewPrometheus creates and registers all collectors
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifier decisions by category.",
		}, []string{"category"}),
		directoryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_lookups_total",
			Help:      "Facility directory lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		triageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "End-to-end triage duration.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		dbConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_active",
			Help:      "Active database connections.",
		}),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Database queries by operation and status.",
		}, []string{"operation", "status"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests,
		p.httpDuration,
		p.classifications,
		p.directoryLookups,
		p.notifications,
		p.triageDuration,
		p.dbConnections,
		p.dbQueries,
	)
	return p
}

func (p *Prometheus) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	p.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (p *Prometheus) RecordClassification(category string) {
	p.classifications.WithLabelValues(category).Inc()
}

func (p *Prometheus) RecordDirectoryLookup(provider, outcome string) {
	p.directoryLookups.WithLabelValues(provider, outcome).Inc()
}

func (p *Prometheus) RecordNotification(channel, outcome string) {
	p.notifications.WithLabelValues(channel, outcome).Inc()
}

func (p *Prometheus) RecordTriage(duration time.Duration) {
	p.triageDuration.Observe(duration.Seconds())
}

func (p *Prometheus) SetDBConnectionsActive(count float64) {
	p.dbConnections.Set(count)
}

func (p *Prometheus) RecordDBQuery(operation, status string) {
	p.dbQueries.WithLabelValues(operation, status).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
