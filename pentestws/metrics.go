// SPDX-License-Identifier: MIT

package pentestws

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bjb28/go-pws/internal/resilience"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Name:      "api_requests_total",
		Help:      "Outcome of Pentest.ws API requests",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pws",
		Name:      "api_request_duration_seconds",
		Help:      "Latency of Pentest.ws API requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pws",
		Name:      "api_request_retries_total",
		Help:      "Retries performed for idempotent Pentest.ws API requests",
	}, []string{"operation"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pws",
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"name"})
)

func observeRequest(operation string, status int, seconds float64) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(operation, label).Inc()
	requestDuration.WithLabelValues(operation).Observe(seconds)
}

func observeBreakerState(name string, state resilience.State) {
	var v float64
	switch state {
	case resilience.StateOpen:
		v = 1
	case resilience.StateHalfOpen:
		v = 2
	}
	breakerState.WithLabelValues(name).Set(v)
}
