package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"glossaryexport/internal/catalog"
	"glossaryexport/internal/storage"
)

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(g); err != nil {
				return err
			}
			if err := catalog.ValidateQueries(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "configuration is valid")
			return nil
		},
	}
}

func checkCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the catalog and warehouse connections",
		Long: `Check that the catalog answers a glossary search and that the warehouse
accepts the target tables. Missing tables are created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			if err := catalog.ValidateQueries(); err != nil {
				return err
			}

			total, err := newCatalogClient(cfg).Ping(ctx)
			if err != nil {
				return fmt.Errorf("catalog %s: %w", cfg.Catalog.Server, err)
			}
			log.Info("catalog reachable", "server", cfg.Catalog.Server, "glossary_terms", total)

			sink, err := openSink(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer sink.Close()

			tables := []storage.TableSpec{
				storage.GlossaryTable(cfg.Destination.GlossaryTable()),
				storage.UsageTable(cfg.Destination.UsageTable()),
			}
			if err := sink.EnsureTables(ctx, tables); err != nil {
				return fmt.Errorf("%s: %w", cfg.Connection.Kind, err)
			}
			log.Info("warehouse reachable", "kind", cfg.Connection.Kind,
				"tables", []string{tables[0].Name, tables[1].Name})
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("glossary-export version %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			fmt.Printf("  sinks:  %v\n", storage.Kinds())
		},
	}
}
