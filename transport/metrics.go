package transport

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline counters. Pass a nil registerer to keep them
// unregistered (still incremented, visible to tests via testutil).
type Metrics struct {
	requests        *prometheus.CounterVec
	refreshAttempts prometheus.Counter
	refreshFailures prometheus.Counter
	retries         prometheus.Counter
}

// NewMetrics builds the counter set, registering on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmaster_client_requests_total",
			Help: "Backend requests completed, by status class.",
		}, []string{"class"}),
		refreshAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_client_token_refreshes_total",
			Help: "Token refresh calls issued.",
		}),
		refreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_client_token_refresh_failures_total",
			Help: "Token refresh calls that failed (unrecoverable path).",
		}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskmaster_client_request_retries_total",
			Help: "Original requests retried after a successful refresh.",
		}),
	}
}

// RefreshAttempts exposes the refresh counter for assertions.
func (m *Metrics) RefreshAttempts() prometheus.Counter { return m.refreshAttempts }

// RefreshFailures exposes the failure counter for assertions.
func (m *Metrics) RefreshFailures() prometheus.Counter { return m.refreshFailures }

// Retries exposes the retry counter for assertions.
func (m *Metrics) Retries() prometheus.Counter { return m.retries }

func (m *Metrics) observe(statusCode int) {
	m.requests.WithLabelValues(fmt.Sprintf("%dxx", statusCode/100)).Inc()
}

func (m *Metrics) observeError() {
	m.requests.WithLabelValues("error").Inc()
}
