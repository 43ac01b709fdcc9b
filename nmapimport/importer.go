// SPDX-License-Identifier: MIT

package nmapimport

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bjb28/go-pws/internal/log"
	"github.com/bjb28/go-pws/pentestws"
)

const defaultConcurrency = 5

// Importer uploads parsed scans into an engagement with bounded
// concurrency. One goroutine per host; a host's ports are created
// sequentially after the host so the hid is known.
type Importer struct {
	client      *pentestws.Client
	concurrency int
	logger      zerolog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithConcurrency bounds the number of hosts uploaded in parallel.
// Values are clamped to [1,10].
func WithConcurrency(n int) Option {
	return func(imp *Importer) {
		imp.concurrency = clampConcurrency(n)
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(imp *Importer) {
		imp.logger = l
	}
}

// New returns an Importer backed by the given client.
func New(client *pentestws.Client, opts ...Option) *Importer {
	imp := &Importer{
		client:      client,
		concurrency: defaultConcurrency,
		logger:      log.WithComponent("nmapimport"),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Result summarises one import run.
type Result struct {
	HostsCreated int
	PortsCreated int
	Failures     []Failure
}

// Failure records a host that could not be fully uploaded.
type Failure struct {
	Target string
	Err    error
}

// Import uploads scans into the engagement eid. Failures on individual
// hosts are collected in the Result rather than aborting the run; only a
// cancelled context stops it early.
func (imp *Importer) Import(ctx context.Context, eid string, scans []HostScan) (*Result, error) {
	res := &Result{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.concurrency)

	for _, scan := range scans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			host := scan.Host
			if err := imp.client.CreateHost(ctx, eid, &host); err != nil {
				imp.logger.Debug().Err(err).
					Str("target", host.Target).
					Msg("host upload failed")
				mu.Lock()
				res.Failures = append(res.Failures, Failure{Target: host.Target, Err: err})
				mu.Unlock()
				return nil
			}

			created := 0
			for i := range scan.Ports {
				port := scan.Ports[i]
				if err := imp.client.CreatePort(ctx, host.ID, &port); err != nil {
					imp.logger.Debug().Err(err).
						Str("target", host.Target).
						Int("port", port.Number).
						Msg("port upload failed")
					mu.Lock()
					res.Failures = append(res.Failures, Failure{Target: host.Target, Err: err})
					mu.Unlock()
					continue
				}
				created++
			}

			mu.Lock()
			res.HostsCreated++
			res.PortsCreated += created
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	imp.logger.Info().
		Str("eid", eid).
		Int("hosts", res.HostsCreated).
		Int("ports", res.PortsCreated).
		Int("failures", len(res.Failures)).
		Msg("nmap import finished")

	return res, nil
}

// ImportFile parses the nmap XML at path and uploads it into eid.
func (imp *Importer) ImportFile(ctx context.Context, eid, path string) (*Result, error) {
	scans, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx, eid, scans)
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
