// SPDX-License-Identifier: MIT

package pentestws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/bjb28/go-pws/internal/ratelimit"
)

const testAPIKey = "test4pi0key8"

// newTestClient builds a client pointed at the mock with test-friendly
// limits and no retries unless asked for.
func newTestClient(t *testing.T, ms *MockServer, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithBaseURL(ms.URL),
		WithAPIKey(testAPIKey),
		WithRetries(0),
		WithRateLimit(ratelimit.Config{GlobalRate: rate.Limit(1000), GlobalBurst: 1000}),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	_, err := New()
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestNewReadsKeyFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "env4pi0key8")

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "env4pi0key8", c.apiKey)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestExplicitKeyBeatsEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "env4pi0key8")

	c, err := New(WithAPIKey("opt4pi0key8"))
	require.NoError(t, err)
	assert.Equal(t, "opt4pi0key8", c.apiKey)
}

func TestRequestCarriesAuthHeaders(t *testing.T) {
	var gotKey, gotAccept, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		writeJSON(w, http.StatusOK, []Engagement{})
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL), WithAPIKey(testAPIKey), WithRetries(0))
	require.NoError(t, err)

	_, err = c.ListEngagements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAPIKey, gotKey)
	assert.Equal(t, "application/json", gotAccept)
	assert.True(t, strings.HasPrefix(gotUA, "go-pws/"), gotUA)
}

func TestRejectedKeyMapsToUnauthorized(t *testing.T) {
	ms := NewMockServer("other4pi0key")
	defer ms.Close()

	c := newTestClient(t, ms)

	_, err := c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid API Key", apiErr.Msg)
}

func TestGetRetriesTransientFailures(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	ms.SeedEngagement(Engagement{ID: "7aBB7za9", Name: "Engagement 1"})
	ms.FailNext("/e", 2)

	c := newTestClient(t, ms, WithRetries(2))
	restore := retryBackoffBase
	retryBackoffBase = time.Millisecond
	defer func() { retryBackoffBase = restore }()

	engagements, err := c.ListEngagements(context.Background())
	require.NoError(t, err)
	assert.Len(t, engagements, 1)
}

func TestRetryLogsCarryRequestID(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	ms.SeedEngagement(Engagement{ID: "7aBB7za9", Name: "Engagement 1"})
	ms.FailNext("/e", 1)

	restore := retryBackoffBase
	retryBackoffBase = time.Millisecond
	defer func() { retryBackoffBase = restore }()

	var buf strings.Builder
	c := newTestClient(t, ms, WithRetries(1), WithLogger(zerolog.New(&buf)))

	_, err := c.ListEngagements(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "retrying after transient failure")
	assert.Contains(t, buf.String(), "request_id")
}

func TestGetGivesUpAfterRetryBudget(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	ms.FailNext("/e", 5)

	c := newTestClient(t, ms, WithRetries(1))
	restore := retryBackoffBase
	retryBackoffBase = time.Millisecond
	defer func() { retryBackoffBase = restore }()

	_, err := c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrServerError)
}

func TestMutationsAreNeverRetried(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	ms.FailNext("/e", 1)

	c := newTestClient(t, ms, WithRetries(3))

	err := c.CreateEngagement(context.Background(), &Engagement{Name: "Engagement 1"})
	assert.ErrorIs(t, err, ErrServerError)

	// The single injected failure was consumed; the next attempt works.
	err = c.CreateEngagement(context.Background(), &Engagement{Name: "Engagement 1"})
	assert.NoError(t, err)
}

func TestBreakerOpensAfterRepeatedServerErrors(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()
	ms.FailNext("/e", 20)

	c := newTestClient(t, ms)

	for i := 0; i < 5; i++ {
		_, err := c.ListEngagements(context.Background())
		require.ErrorIs(t, err, ErrServerError)
	}

	_, err := c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()

	c := newTestClient(t, ms)

	for i := 0; i < 10; i++ {
		_, err := c.Engagement(context.Background(), "missing99")
		require.ErrorIs(t, err, ErrNotFound)
	}

	// Breaker stayed closed; a healthy request still goes through.
	_, err := c.ListEngagements(context.Background())
	assert.NoError(t, err)
}

func TestTimeoutMapsToErrTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, []Engagement{})
	}))
	defer srv.Close()

	c, err := New(
		WithBaseURL(srv.URL),
		WithAPIKey(testAPIKey),
		WithRetries(0),
		WithHTTPClient(&http.Client{Timeout: 30 * time.Millisecond}),
	)
	require.NoError(t, err)

	_, err = c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUnreachableHostMapsToErrUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(WithBaseURL(url), WithAPIKey(testAPIKey), WithRetries(0))
	require.NoError(t, err)

	_, err = c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMalformedBodyMapsToErrBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not valid`))
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL), WithAPIKey(testAPIKey), WithRetries(0))
	require.NoError(t, err)

	_, err = c.ListEngagements(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestContextCancellationStopsRequest(t *testing.T) {
	ms := NewMockServer(testAPIKey)
	defer ms.Close()

	c := newTestClient(t, ms)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListEngagements(ctx)
	assert.Error(t, err)
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "engagements", resourceOf("engagements.list"))
	assert.Equal(t, "hosts", resourceOf("hosts.create"))
	assert.Equal(t, "ping", resourceOf("ping"))
}
