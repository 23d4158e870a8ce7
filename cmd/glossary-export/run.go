package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"glossaryexport/internal/export"
)

func runCmd(g *globalFlags) *cobra.Command {
	var printSummary bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one export and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			closeMetrics := setupMetrics(ctx, cfg, log)
			defer closeMetrics()

			e, sink, err := newExporter(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer sink.Close()

			sum, err := e.Run(ctx)
			if printSummary {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(sum)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&printSummary, "summary", false, "print the run summary as JSON on stdout")
	return cmd
}

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Export on a fixed interval until interrupted",
		Long: `Export on a fixed interval until SIGINT or SIGTERM.

The first export runs at startup unless export_on_startup is false. When
schedule.status_addr is set, a status server is started on it:
  GET  /healthz  liveness
  GET  /status   last run summary and counters
  POST /run      trigger an export now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			closeMetrics := setupMetrics(ctx, cfg, log)
			defer closeMetrics()

			e, sink, err := newExporter(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer sink.Close()

			status := &export.Status{}
			sched := &export.Scheduler{
				Runner:    e,
				Interval:  cfg.Schedule.Interval,
				OnStartup: cfg.ExportOnStartup,
				Status:    status,
				Logger:    log,
			}

			if addr := cfg.Schedule.StatusAddr; addr != "" {
				srv := &http.Server{
					Addr:              addr,
					Handler:           export.NewStatusRouter(status, sched.Trigger),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					log.Info("status server listening", "addr", addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("status server failed", "err", err)
						stop()
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						log.Warn("status server shutdown", "err", err)
					}
				}()
			}

			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}
