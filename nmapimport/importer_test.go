// SPDX-License-Identifier: MIT

package nmapimport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/bjb28/go-pws/internal/ratelimit"
	"github.com/bjb28/go-pws/pentestws"
)

const testAPIKey = "test4pi0key8"

func newTestClient(t *testing.T, ms *pentestws.MockServer) *pentestws.Client {
	t.Helper()
	c, err := pentestws.New(
		pentestws.WithBaseURL(ms.URL),
		pentestws.WithAPIKey(testAPIKey),
		pentestws.WithRetries(0),
		pentestws.WithRateLimit(ratelimit.Config{GlobalRate: rate.Limit(1000), GlobalBurst: 1000}),
	)
	require.NoError(t, err)
	return c
}

func TestImport(t *testing.T) {
	ms := pentestws.NewMockServer(testAPIKey)
	defer ms.Close()
	eid := ms.SeedEngagement(pentestws.Engagement{Name: "Internal"})

	scans, err := Parse(strings.NewReader(sampleScan))
	require.NoError(t, err)

	imp := New(newTestClient(t, ms), WithConcurrency(2))
	res, err := imp.Import(context.Background(), eid, scans)
	require.NoError(t, err)

	assert.Equal(t, 2, res.HostsCreated)
	assert.Equal(t, 4, res.PortsCreated)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, ms.HostCount())
	assert.Equal(t, 4, ms.PortCount())
}

func TestImportUnknownEngagement(t *testing.T) {
	ms := pentestws.NewMockServer(testAPIKey)
	defer ms.Close()

	scans, err := Parse(strings.NewReader(sampleScan))
	require.NoError(t, err)

	imp := New(newTestClient(t, ms))
	res, err := imp.Import(context.Background(), "12345678", scans)
	require.NoError(t, err)

	assert.Zero(t, res.HostsCreated)
	assert.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.ErrorIs(t, f.Err, pentestws.ErrBadRequest)
	}
}

func TestImportEmptyScan(t *testing.T) {
	ms := pentestws.NewMockServer(testAPIKey)
	defer ms.Close()
	eid := ms.SeedEngagement(pentestws.Engagement{Name: "Internal"})

	imp := New(newTestClient(t, ms))
	res, err := imp.Import(context.Background(), eid, nil)
	require.NoError(t, err)
	assert.Zero(t, res.HostsCreated)
	assert.Zero(t, res.PortsCreated)
}

func TestImportCancelledContext(t *testing.T) {
	ms := pentestws.NewMockServer(testAPIKey)
	defer ms.Close()
	eid := ms.SeedEngagement(pentestws.Engagement{Name: "Internal"})

	scans, err := Parse(strings.NewReader(sampleScan))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := New(newTestClient(t, ms))
	_, err = imp.Import(ctx, eid, scans)
	assert.Error(t, err)
}

func TestConcurrencyClamped(t *testing.T) {
	ms := pentestws.NewMockServer(testAPIKey)
	defer ms.Close()

	imp := New(newTestClient(t, ms), WithConcurrency(0))
	assert.Equal(t, 1, imp.concurrency)

	imp = New(newTestClient(t, ms), WithConcurrency(50))
	assert.Equal(t, 10, imp.concurrency)
}
