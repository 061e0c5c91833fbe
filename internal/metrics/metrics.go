// Package metrics defines the Prometheus collectors of the marketplace client.
// It is the single source of truth for metric names, labels, and help strings.
//
// Collectors are created per Metrics value and registered on the supplied
// registerer so that tests can use an isolated prometheus.Registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homeservices_client"

// Metrics groups the client collectors.
type Metrics struct {
	// RequestsTotal counts backend calls.
	// Labels:
	//   - method: HTTP method
	//   - code: status class ("2xx", "4xx", "5xx") or "error" for transport failures
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures backend round trips.
	// Label:
	//   - method: HTTP method
	RequestDuration *prometheus.HistogramVec

	// SessionTeardowns counts sessions destroyed, by reason ("unauthorized", "logout", "refresh_failed").
	SessionTeardowns *prometheus.CounterVec

	// RefreshCalls counts /refresh round trips actually sent (after single-flight collapsing).
	RefreshCalls prometheus.Counter
}

// New creates the collectors and registers them on reg (skipped when reg is nil).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of backend requests, by method and status class.",
			},
			[]string{"method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SessionTeardowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_teardowns_total",
				Help:      "Total number of client sessions destroyed, by reason.",
			},
			[]string{"reason"},
		),
		RefreshCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_calls_total",
				Help:      "Total number of token refresh calls sent to the backend.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.SessionTeardowns, m.RefreshCalls)
	}
	return m
}

// ObserveRequest records one backend call. status 0 means a transport failure.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Teardown records a destroyed session.
func (m *Metrics) Teardown(reason string) {
	if m == nil {
		return
	}
	m.SessionTeardowns.WithLabelValues(reason).Inc()
}

// Refresh records one /refresh call.
func (m *Metrics) Refresh() {
	if m == nil {
		return
	}
	m.RefreshCalls.Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
