// Command glossary-export copies the catalog's business glossary and the
// usage of its terms into two warehouse tables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"glossaryexport/internal/catalog"
	"glossaryexport/internal/config"
	"glossaryexport/internal/export"
	"glossaryexport/internal/glossary"
	"glossaryexport/internal/logging"
	"glossaryexport/internal/metrics"
	"glossaryexport/internal/metrics/datadog"
	"glossaryexport/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "glossaryexport/internal/storage/all"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fatalf("%v", err)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   "glossary-export",
		Short: "Export the catalog business glossary to a warehouse",
		Long: `glossary-export reads glossary terms, glossary nodes and the entities tagged
with each term from the catalog GraphQL API and replaces two warehouse tables
with the result.

Configuration is layered (later sources override earlier):
  1. Default values
  2. The YAML file given by --config
  3. The .env file given by --env-file (or .env in the current directory)
  4. GLOSSARY_EXPORT_* environment variables`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "path to .env file (default: .env in current directory)")

	cmd.AddCommand(runCmd(&g))
	cmd.AddCommand(serveCmd(&g))
	cmd.AddCommand(checkCmd(&g))
	cmd.AddCommand(validateCmd(&g))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads and validates the configuration. Issues are printed to
// stderr; any error-severity issue fails the load.
func loadConfig(g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath, g.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Config{}, fmt.Errorf("configuration is invalid")
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level).With("service", "glossary-export")
}

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it on shutdown.
func setupMetrics(ctx context.Context, cfg config.Config, log *slog.Logger) func() {
	switch strings.ToLower(cfg.Metrics.Backend) {
	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Metrics.JobName,
			Tags:       cfg.Metrics.Tags,
			FlushEvery: cfg.Metrics.FlushEvery,
		})
		if err != nil {
			log.Warn("metrics: failed to init datadog backend, using nop", "err", err)
			return func() {}
		}
		log.Info("metrics enabled", "backend", "datadog", "job_name", cfg.Metrics.JobName, "tags", cfg.Metrics.Tags)
		metrics.SetBackend(b)

		// Close stops the periodic flush loop and then performs a final Flush.
		return func() {
			if err := b.Close(); err != nil {
				log.Warn("metrics: close error", "err", err)
			}
		}
	default:
		return func() {}
	}
}

func newCatalogClient(cfg config.Config) *catalog.Client {
	return catalog.NewClient(cfg.Catalog.Server, cfg.Catalog.Token,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithRateLimit(cfg.Catalog.RequestsPerSecond),
	)
}

func openSink(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Sink, error) {
	sink, err := storage.New(ctx, storage.Config{
		Kind:   strings.ToLower(cfg.Connection.Kind),
		DSN:    cfg.Connection.DSN,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", cfg.Connection.Kind, err)
	}
	return sink, nil
}

// newExporter wires an Exporter from cfg. The caller closes the sink.
func newExporter(ctx context.Context, cfg config.Config, log *slog.Logger) (*export.Exporter, storage.Sink, error) {
	sink, err := openSink(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	client := newCatalogClient(cfg)
	e := &export.Exporter{
		Fetcher:       glossary.NewFetcher(client, log),
		Transformer:   glossary.NewTransformer(log),
		Sink:          sink,
		GlossaryTable: storage.GlossaryTable(cfg.Destination.GlossaryTable()),
		UsageTable:    storage.UsageTable(cfg.Destination.UsageTable()),
		PageSize:      cfg.BatchSize,
		EntityTypes:   cfg.EntityTypes,
		Logger:        log,
	}
	return e, sink, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "glossary-export: "+format+"\n", args...)
	os.Exit(1)
}

// shutdownTimeout bounds the graceful stop of the status server.
const shutdownTimeout = 10 * time.Second
