// SPDX-License-Identifier: MIT

// Package httpx builds the hardened HTTP client the API wrapper sends its
// requests through: bounded timeouts, a default User-Agent, and a cap on
// response body size so a misbehaving upstream cannot balloon memory.
package httpx

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultClientTimeout         = 30 * time.Second
	defaultDialTimeout           = 5 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second
	defaultIdleConnTimeout       = 30 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 4
)

// ErrResponseTooLarge is surfaced by response body reads once the configured
// size cap is exceeded.
var ErrResponseTooLarge = errors.New("httpx: response body exceeds size limit")

type options struct {
	userAgent        string
	maxResponseBytes int64
}

// Option configures the client beyond its timeout.
type Option func(*options)

// WithUserAgent sets a User-Agent header on requests that carry none.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithMaxResponseBytes caps how much of any response body can be read before
// ErrResponseTooLarge is returned.
func WithMaxResponseBytes(n int64) Option {
	return func(o *options) { o.maxResponseBytes = n }
}

// NewClient returns a hardened HTTP client for outbound API calls.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}

	responseHeaderTimeout := timeout
	if responseHeaderTimeout > defaultResponseHeaderTimeout {
		responseHeaderTimeout = defaultResponseHeaderTimeout
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if o.userAgent != "" || o.maxResponseBytes > 0 {
		rt = &apiTransport{base: rt, opts: o}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// apiTransport decorates the base transport with the wrapper's request and
// response policies.
type apiTransport struct {
	base http.RoundTripper
	opts options
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.opts.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.opts.userAgent)
	}

	res, err := t.base.RoundTrip(req)
	if err != nil || res == nil {
		return res, err
	}
	if t.opts.maxResponseBytes > 0 {
		res.Body = &boundedBody{rc: res.Body, remaining: t.opts.maxResponseBytes}
	}
	return res, nil
}

// boundedBody fails the read once the byte budget is spent instead of
// silently truncating like io.LimitReader would.
type boundedBody struct {
	rc        io.ReadCloser
	remaining int64
}

func (b *boundedBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, ErrResponseTooLarge
	}
	// Read one byte past the budget so a body of exactly the cap still
	// reaches EOF cleanly.
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.rc.Read(p)
	if int64(n) <= b.remaining {
		b.remaining -= int64(n)
		return n, err
	}
	n = int(b.remaining)
	b.remaining = -1
	return n, ErrResponseTooLarge
}

func (b *boundedBody) Close() error {
	return b.rc.Close()
}
