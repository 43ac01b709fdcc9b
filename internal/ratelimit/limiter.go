// SPDX-License-Identifier: MIT

// Package ratelimit throttles outbound requests to the Pentest.ws API so a
// burst of client activity stays inside the service's fair-use limits.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var throttledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pws",
		Name:      "ratelimit_throttled_total",
		Help:      "Total outbound requests that had to wait for the rate limiter",
	},
	[]string{"limit_type", "operation"},
)

// Config holds rate limiting configuration.
type Config struct {
	// Global limits across all operations.
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-operation limits ("engagements", "hosts", "ports", ...).
	OperationRates map[string]rate.Limit
	OperationBurst map[string]int
}

// DefaultConfig returns limits sized for the hosted service.
func DefaultConfig() Config {
	return Config{
		GlobalRate:  10, // 10 req/s overall
		GlobalBurst: 20,
	}
}

// Limiter coordinates a global limiter with optional per-operation limiters.
type Limiter struct {
	global *rate.Limiter

	mu    sync.RWMutex
	perOp map[string]*rate.Limiter
}

// New creates a limiter from the given config.
func New(config Config) *Limiter {
	if config.GlobalRate <= 0 {
		config = DefaultConfig()
	}

	l := &Limiter{
		global: rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perOp:  make(map[string]*rate.Limiter),
	}

	for op, opRate := range config.OperationRates {
		burst := config.OperationBurst[op]
		if burst <= 0 {
			burst = int(opRate)
		}
		l.perOp[op] = rate.NewLimiter(opRate, burst)
	}

	return l
}

// Wait blocks until the request may proceed or the context is done.
func (l *Limiter) Wait(ctx context.Context, operation string) error {
	if err := waitCounted(ctx, l.global, "global", operation); err != nil {
		return err
	}

	l.mu.RLock()
	opLimiter, exists := l.perOp[operation]
	l.mu.RUnlock()

	if exists {
		return waitCounted(ctx, opLimiter, "per_operation", operation)
	}
	return nil
}

// waitCounted reserves a slot, records a throttle metric when the caller has
// to wait, and honours context cancellation during the wait.
func waitCounted(ctx context.Context, lim *rate.Limiter, limitType, operation string) error {
	r := lim.Reserve()
	if !r.OK() {
		return fmt.Errorf("ratelimit: burst too small for %s/%s", limitType, operation)
	}

	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	throttledTotal.WithLabelValues(limitType, operation).Inc()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
