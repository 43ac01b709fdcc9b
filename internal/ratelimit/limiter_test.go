// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWaitWithinBurstDoesNotBlock(t *testing.T) {
	l := New(Config{GlobalRate: 10, GlobalBurst: 5})

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background(), "engagements"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitBlocksWhenExhausted(t *testing.T) {
	l := New(Config{GlobalRate: 20, GlobalBurst: 1})

	require.NoError(t, l.Wait(context.Background(), "hosts"))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "hosts"))
	// Second call needs a ~50ms token refill.
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitHonoursContextCancellation(t *testing.T) {
	l := New(Config{GlobalRate: 0.1, GlobalBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "ports"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "ports")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPerOperationLimit(t *testing.T) {
	l := New(Config{
		GlobalRate:     100,
		GlobalBurst:    100,
		OperationRates: map[string]rate.Limit{"findings": 50},
		OperationBurst: map[string]int{"findings": 1},
	})

	require.NoError(t, l.Wait(context.Background(), "findings"))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "findings"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	// Other operations are unaffected by the findings limiter.
	begin := time.Now()
	require.NoError(t, l.Wait(context.Background(), "hosts"))
	assert.Less(t, time.Since(begin), 10*time.Millisecond)
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	l := New(Config{})

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "engagements"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
