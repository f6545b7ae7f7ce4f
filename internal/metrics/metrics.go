package metrics

import (
	"net/http"
	"time"
)

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordClassification(category string)
	RecordDirectoryLookup(provider, outcome string)
	RecordNotification(channel, outcome string)
	RecordTriage(duration time.Duration)
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordClassification(category string)           {}
func (m *NoOpMetrics) RecordDirectoryLookup(provider, outcome string) {}
func (m *NoOpMetrics) RecordNotification(channel, outcome string)     {}
func (m *NoOpMetrics) RecordTriage(duration time.Duration)            {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)           {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string)         {}
func (m *NoOpMetrics) Handler() http.Handler                          { return http.NotFoundHandler() }

// Global metrics instance
var globalMetrics Metrics = &NoOpMetrics{}

// Init installs the Prometheus implementation as the global instance
func Init() {
	globalMetrics = NewPrometheus()
}

// Set replaces the global instance; mainly for tests
func Set(m Metrics) {
	if m == nil {
		m = &NoOpMetrics{}
	}
	globalMetrics = m
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordClassification counts a classifier decision
func RecordClassification(category string) {
	globalMetrics.RecordClassification(category)
}

// RecordDirectoryLookup counts a facility lookup against a provider
func RecordDirectoryLookup(provider, outcome string) {
	globalMetrics.RecordDirectoryLookup(provider, outcome)
}

// RecordNotification counts a delivery attempt on a channel
func RecordNotification(channel, outcome string) {
	globalMetrics.RecordNotification(channel, outcome)
}

// RecordTriage records the end-to-end duration of a triage request
func RecordTriage(duration time.Duration) {
	globalMetrics.RecordTriage(duration)
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	globalMetrics.SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	globalMetrics.RecordDBQuery(operation, status)
}
