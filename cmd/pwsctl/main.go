// SPDX-License-Identifier: MIT

// pwsctl is a small CLI over the Pentest.ws API: list and manage
// engagements, inspect hosts and ports, and import nmap scans.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/bjb28/go-pws/internal/config"
	xlog "github.com/bjb28/go-pws/internal/log"
	"github.com/bjb28/go-pws/internal/ratelimit"
	"github.com/bjb28/go-pws/internal/version"
	"github.com/bjb28/go-pws/nmapimport"
	"github.com/bjb28/go-pws/pentestws"
)

const usage = `Usage: pwsctl [flags] <command> [args]

Commands:
  engagements list
  engagements get <eid>
  engagements create <name>
  engagements delete <eid>
  hosts list <eid>
  ports list <hid>
  import-nmap <eid> <scan.xml>

Flags:
`

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("pwsctl %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel, Service: "pwsctl"})
	logger := xlog.WithComponent("pwsctl")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, client, cfg, args); err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(cfg config.Config) (*pentestws.Client, error) {
	opts := []pentestws.Option{
		pentestws.WithTimeout(cfg.Timeout),
		pentestws.WithRetries(cfg.Retries),
		pentestws.WithRateLimit(ratelimit.Config{
			GlobalRate:  rate.Limit(cfg.RateLimit),
			GlobalBurst: cfg.RateBurst,
		}),
	}
	if cfg.APIKey != "" {
		opts = append(opts, pentestws.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, pentestws.WithBaseURL(cfg.BaseURL))
	}
	return pentestws.New(opts...)
}

func run(ctx context.Context, client *pentestws.Client, cfg config.Config, args []string) error {
	switch args[0] {
	case "engagements":
		return runEngagements(ctx, client, args[1:])
	case "hosts":
		return runHosts(ctx, client, args[1:])
	case "ports":
		return runPorts(ctx, client, args[1:])
	case "import-nmap":
		return runImportNmap(ctx, client, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runEngagements(ctx context.Context, client *pentestws.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("engagements: missing subcommand (list|get|create|delete)")
	}
	switch args[0] {
	case "list":
		engagements, err := client.ListEngagements(ctx)
		if err != nil {
			return err
		}
		return printJSON(engagements)
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: engagements get <eid>")
		}
		e, err := client.Engagement(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(e)
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("usage: engagements create <name>")
		}
		e := pentestws.Engagement{Name: args[1]}
		if err := client.CreateEngagement(ctx, &e); err != nil {
			return err
		}
		fmt.Println(e.ID)
		return nil
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: engagements delete <eid>")
		}
		return client.DeleteEngagement(ctx, args[1])
	default:
		return fmt.Errorf("engagements: unknown subcommand %q", args[0])
	}
}

func runHosts(ctx context.Context, client *pentestws.Client, args []string) error {
	if len(args) != 2 || args[0] != "list" {
		return fmt.Errorf("usage: hosts list <eid>")
	}
	hosts, err := client.ListHosts(ctx, args[1])
	if err != nil {
		return err
	}
	return printJSON(hosts)
}

func runPorts(ctx context.Context, client *pentestws.Client, args []string) error {
	if len(args) != 2 || args[0] != "list" {
		return fmt.Errorf("usage: ports list <hid>")
	}
	ports, err := client.ListPorts(ctx, args[1])
	if err != nil {
		return err
	}
	return printJSON(ports)
}

func runImportNmap(ctx context.Context, client *pentestws.Client, cfg config.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: import-nmap <eid> <scan.xml>")
	}
	eid, path := args[0], args[1]

	start := time.Now()
	imp := nmapimport.New(client, nmapimport.WithConcurrency(cfg.Concurrency))
	res, err := imp.ImportFile(ctx, eid, path)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d hosts, %d ports in %s\n",
		res.HostsCreated, res.PortsCreated, time.Since(start).Round(time.Millisecond))
	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "failed: %s: %v\n", f.Target, f.Err)
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d failures during import", len(res.Failures))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
