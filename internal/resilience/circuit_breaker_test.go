// SPDX-License-Identifier: MIT

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

var errUpstream = errors.New("upstream down")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("api", 3, time.Minute)

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerHalfOpenProbeSuccessCloses(t *testing.T) {
	clk := &fakeClock{now: time.Unix(100, 0)}
	cb := NewCircuitBreaker("api", 1, 10*time.Second, WithClock(clk))

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	require.Equal(t, StateOpen, cb.State())

	clk.Advance(11 * time.Second)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	clk := &fakeClock{now: time.Unix(100, 0)}
	cb := NewCircuitBreaker("api", 1, 10*time.Second, WithClock(clk))

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	clk.Advance(11 * time.Second)

	require.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	// Still open, no probe allowed until the reset timeout passes again.
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("api", 2, time.Minute)

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errUpstream }))

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerStateCallback(t *testing.T) {
	var states []State
	cb := NewCircuitBreaker("api", 1, time.Minute, WithStateFunc(func(_ string, s State) {
		states = append(states, s)
	}))

	require.Error(t, cb.Execute(func() error { return errUpstream }))

	assert.Equal(t, []State{StateClosed, StateOpen}, states)
}

func TestBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker("api", 0, 0)
	assert.Equal(t, 3, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
}
