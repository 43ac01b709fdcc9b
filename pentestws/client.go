// SPDX-License-Identifier: MIT

package pentestws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bjb28/go-pws/internal/httpx"
	xlog "github.com/bjb28/go-pws/internal/log"
	"github.com/bjb28/go-pws/internal/ratelimit"
	"github.com/bjb28/go-pws/internal/resilience"
	"github.com/bjb28/go-pws/internal/version"
)

const (
	// DefaultBaseURL is the hosted service's API root.
	DefaultBaseURL = "https://pentest.ws/api/v1"

	// EnvAPIKey names the environment variable consulted when no key is
	// configured explicitly.
	EnvAPIKey = "PENTEST_WS_API_KEY"

	defaultRetries   = 2
	maxResponseBytes = 10 << 20
)

// retryBackoffBase scales the quadratic retry backoff; tests shrink it.
var retryBackoffBase = 500 * time.Millisecond

// Client talks to the Pentest.ws API. It is safe for concurrent use.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.Limiter
	breaker *resilience.CircuitBreaker
	retries int
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a self-hosted instance.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.base = strings.TrimRight(u, "/") }
}

// WithAPIKey sets the API key explicitly instead of reading PENTEST_WS_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout replaces the HTTP client with a hardened one using the given
// overall timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = hardenedClient(d) }
}

// WithRetries sets how often idempotent requests are retried on transient
// failures. Mutating requests are never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRateLimit replaces the default outbound rate limits.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(c *Client) { c.limiter = ratelimit.New(cfg) }
}

// WithLogger attaches a custom logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client. It fails with ErrAPIKeyMissing when no key is
// configured and PENTEST_WS_API_KEY is unset.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		base:    DefaultBaseURL,
		http:    hardenedClient(0),
		retries: defaultRetries,
		logger:  xlog.WithComponent("pentestws"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv(EnvAPIKey)
	}
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	if c.limiter == nil {
		c.limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	c.breaker = resilience.NewCircuitBreaker("pentestws", 5, 30*time.Second,
		resilience.WithStateFunc(observeBreakerState))

	return c, nil
}

// hardenedClient builds the default transport: the response-size cap and the
// client's User-Agent live in the transport so every request gets them.
func hardenedClient(timeout time.Duration) *http.Client {
	return httpx.NewClient(timeout,
		httpx.WithUserAgent("go-pws/"+version.Version),
		httpx.WithMaxResponseBytes(maxResponseBytes),
	)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) loggerFor(ctx context.Context) *zerolog.Logger {
	l := xlog.WithContext(ctx, c.logger)
	return &l
}

// do runs one API call: rate limit, request, status mapping, decode into out.
// Idempotent GETs are retried with exponential backoff on transient errors.
func (c *Client) do(ctx context.Context, method, path, operation string, payload, out any) error {
	if xlog.RequestIDFromContext(ctx) == "" {
		ctx = xlog.ContextWithRequestID(ctx, xlog.NewRequestID())
	}

	if err := c.limiter.Wait(ctx, resourceOf(operation)); err != nil {
		return err
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = c.retries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			retriesTotal.WithLabelValues(operation).Inc()
			backoff := time.Duration(attempt*attempt) * retryBackoffBase
			c.loggerFor(ctx).Warn().
				Str("operation", operation).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying after transient failure")

			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		var reqErr error
		brErr := c.breaker.Execute(func() error {
			reqErr = c.send(ctx, method, path, operation, body, out)
			if IsRetryable(reqErr) {
				// Only infrastructure failures count against the breaker;
				// a 404 or 400 is a healthy upstream saying no.
				return reqErr
			}
			return nil
		})
		if errors.Is(brErr, resilience.ErrCircuitOpen) {
			return ErrCircuitOpen
		}
		if reqErr == nil {
			return nil
		}
		lastErr = reqErr
		if !IsRetryable(reqErr) {
			return reqErr
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path, operation string, body []byte, out any) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return &APIError{Sentinel: ErrBadRequest, Operation: operation, Err: err}
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		observeRequest(operation, 0, time.Since(start).Seconds())
		sentinel := ErrUnavailable
		var nerr net.Error
		if (errors.As(err, &nerr) && nerr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			sentinel = ErrTimeout
		}
		c.loggerFor(ctx).Error().Err(err).
			Str("operation", operation).
			Str("method", method).
			Msg("transport failure")
		return &APIError{Sentinel: sentinel, Operation: operation, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	raw, err := io.ReadAll(res.Body)
	observeRequest(operation, res.StatusCode, time.Since(start).Seconds())
	if err != nil {
		return &APIError{Sentinel: ErrBadResponse, Operation: operation, Status: res.StatusCode, Err: err}
	}

	c.loggerFor(ctx).Debug().
		Str("operation", operation).
		Str("method", method).
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if res.StatusCode != http.StatusOK {
		return statusError(operation, res.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.loggerFor(ctx).Error().Err(err).
			Str("operation", operation).
			Msg("failed to decode response")
		return &APIError{Sentinel: ErrBadResponse, Operation: operation, Status: res.StatusCode, Err: err}
	}
	return nil
}

// statusError maps a non-200 response onto the sentinel errors, carrying the
// service's {"msg": ...} body when present.
func statusError(operation string, status int, raw []byte) error {
	var payload struct {
		Msg string `json:"msg"`
	}
	_ = json.Unmarshal(raw, &payload)

	sentinel := ErrBadResponse
	switch {
	case status == http.StatusBadRequest:
		sentinel = ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status == http.StatusRequestTimeout:
		sentinel = ErrTimeout
	case status >= 500:
		sentinel = ErrServerError
	}

	return &APIError{
		Sentinel:  sentinel,
		Operation: operation,
		Status:    status,
		Msg:       payload.Msg,
	}
}

// resourceOf extracts the resource part of an operation label such as
// "engagements.list" for the per-operation rate limiter.
func resourceOf(operation string) string {
	if i := strings.IndexByte(operation, '.'); i > 0 {
		return operation[:i]
	}
	return operation
}
