// hostjwt runs the per-host token provider across a YAML inventory and prints the
// resulting target attribute of every host.
//
// Configuration comes from --config (YAML) overlaid with HOSTJWT_* environment variables,
// optionally seeded from a dotenv file with --env-file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/hostjwt"
	"github.com/MrEthical07/hostjwt/inventory"
	"github.com/MrEthical07/hostjwt/metrics/export/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	inventoryPath string
	envFile       string
	concurrency   int
	format        string
	auditLog      string
	metrics       bool
	logLevel      string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("hostjwt", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.configPath, "config", "", "path to YAML provider configuration")
	flagSet.StringVar(&opts.inventoryPath, "inventory", "", "path to YAML host inventory (required)")
	flagSet.StringVar(&opts.envFile, "env-file", "", "dotenv file loaded before reading configuration")
	flagSet.IntVar(&opts.concurrency, "concurrency", 4, "number of hosts processed in parallel")
	flagSet.StringVar(&opts.format, "format", "json", "output format: json or yaml")
	flagSet.StringVar(&opts.auditLog, "audit-log", "", "append JSON audit events to this file")
	flagSet.BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics to stderr when done")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.inventoryPath == "" {
		return errors.New("--inventory is required")
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", opts.concurrency)
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("--format must be json or yaml, got %q", opts.format)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}

	cfg, err := hostjwt.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.metrics {
		cfg.Metrics.Enabled = true
	}

	var sink hostjwt.AuditSink
	if opts.auditLog != "" {
		f, err := os.OpenFile(opts.auditLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer f.Close()
		cfg.Audit.Enabled = true
		sink = hostjwt.NewJSONLinesSink(f)
	}

	builder := hostjwt.New().WithConfig(cfg).WithLogger(logger)
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	provider, err := builder.Build()
	if err != nil {
		return err
	}

	hosts, err := inventory.LoadFile(opts.inventoryPath)
	if err != nil {
		provider.Close()
		return err
	}

	failures := determineAll(ctx, provider, hosts, opts.concurrency)
	// Close drains pending audit events before the output is written.
	provider.Close()

	result := make(map[string]any, len(hosts))
	for _, host := range hosts {
		result[host.Name()] = host.Attributes()[provider.Target()]
	}
	if err := writeResult(stdout, opts.format, result); err != nil {
		return err
	}

	if opts.metrics {
		fmt.Fprint(stderr, prometheus.NewPrometheusExporter(provider).Render())
	}

	return failures
}

func determineAll(ctx context.Context, provider *hostjwt.Provider, hosts []*inventory.Host, concurrency int) error {
	work := make(chan *inventory.Host)

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range work {
				if err := provider.Determine(ctx, host); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}
		work <- host
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func writeResult(w io.Writer, format string, result map[string]any) error {
	switch strings.ToLower(format) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
}
