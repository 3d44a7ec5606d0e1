// Package metrics provides Prometheus instrumentation for the API client.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics holds the Prometheus collectors instrumenting the client's
// outbound traffic and token lifecycle.
type ClientMetrics struct {
	// RequestsTotal counts physical HTTP attempts against the vendor API,
	// labelled by endpoint and status code ("error" for transport failures).
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes per-attempt latency in seconds.
	RequestDuration *prometheus.HistogramVec

	// TokenRefreshesTotal counts refresh exchanges by result.
	TokenRefreshesTotal *prometheus.CounterVec

	// ForcedRefreshesTotal counts refreshes triggered by a credential
	// rejection rather than local expiry.
	ForcedRefreshesTotal prometheus.Counter
}

// NewClientMetrics creates and registers the client collectors on the given
// registerer. Pass prometheus.DefaultRegisterer for the usual global registry.
func NewClientMetrics(reg prometheus.Registerer) (*ClientMetrics, error) {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dimplex_api_requests_total",
			Help: "Physical HTTP requests issued against the Dimplex Control API",
		}, []string{"endpoint", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dimplex_api_request_duration_seconds",
			Help:    "Latency of Dimplex Control API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		TokenRefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dimplex_token_refreshes_total",
			Help: "Refresh token exchanges against the identity provider",
		}, []string{"result"}),

		ForcedRefreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dimplex_token_refreshes_forced_total",
			Help: "Token refreshes forced by a credential-rejection response",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.TokenRefreshesTotal,
		m.ForcedRefreshesTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one physical HTTP attempt. status <= 0 means the
// request failed before a response arrived.
func (m *ClientMetrics) ObserveRequest(endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(endpoint, label).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveRefresh records the outcome of one refresh exchange.
func (m *ClientMetrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.TokenRefreshesTotal.WithLabelValues(result).Inc()
}

// ObserveForcedRefresh records a refresh forced by a 401/403 response.
func (m *ClientMetrics) ObserveForcedRefresh() {
	if m == nil {
		return
	}
	m.ForcedRefreshesTotal.Inc()
}
