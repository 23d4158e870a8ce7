// Package export runs the glossary export: fetch glossary terms, nodes and
// term usage from the catalog, flatten them into rows and replace the two
// warehouse tables.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"glossaryexport/internal/glossary"
	"glossaryexport/internal/logging"
	"glossaryexport/internal/metrics"
	"glossaryexport/internal/storage"
)

// Step names, used as the step label of step metrics.
const (
	StepEnsureTables      = "ensure_tables"
	StepFetchGlossary     = "fetch_glossary"
	StepTransformGlossary = "transform_glossary"
	StepLoadGlossary      = "load_glossary"
	StepFetchUsage        = "fetch_usage"
	StepTransformUsage    = "transform_usage"
	StepLoadUsage         = "load_usage"
)

// Summary describes one finished run.
type Summary struct {
	RunID string    `json:"run_id"`
	Start time.Time `json:"start"`
	// Duration is the wall time of the whole run.
	Duration time.Duration `json:"duration"`

	Terms        int `json:"terms"`
	Nodes        int `json:"nodes"`
	GlossaryRows int `json:"glossary_rows"`
	UsageRecords int `json:"usage_records"`
	UsageRows    int `json:"usage_rows"`

	// Written counts are what the sink reports; a skipped empty load is 0.
	GlossaryWritten int64 `json:"glossary_written"`
	UsageWritten    int64 `json:"usage_written"`
	// Duplicates counts rows dropped for repeating a primary key.
	Duplicates int `json:"duplicates"`
}

// Exporter wires the catalog fetcher, the transformer and the sink.
//
// Fetch and transform failures never abort a run: they shrink the result and
// are logged where they happen. Sink failures abort the run and are returned.
type Exporter struct {
	Fetcher     *glossary.Fetcher
	Transformer *glossary.Transformer
	Sink        storage.Sink

	GlossaryTable storage.TableSpec
	UsageTable    storage.TableSpec

	// PageSize is the page size of term and node searches.
	PageSize int
	// EntityTypes are the consuming entity types searched for term usage.
	EntityTypes []string

	Logger *slog.Logger

	// NewRunID is an optional seam; uuid.NewString is used when nil.
	NewRunID func() string
}

// Run performs one full export.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	if e.Fetcher == nil || e.Transformer == nil || e.Sink == nil {
		return Summary{}, fmt.Errorf("export: fetcher, transformer and sink are required")
	}

	sum := Summary{RunID: e.runID(), Start: time.Now()}
	log := logging.OrDiscard(e.Logger).With("run_id", sum.RunID)
	log.Info("starting glossary export")

	err := e.run(ctx, log, &sum)
	sum.Duration = time.Since(sum.Start)
	if err != nil {
		log.Error("glossary export failed", "err", err, "duration", sum.Duration)
		return sum, err
	}
	log.Info("glossary export completed",
		"glossary_rows", sum.GlossaryWritten,
		"usage_rows", sum.UsageWritten,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (e *Exporter) run(ctx context.Context, log *slog.Logger, sum *Summary) error {
	start := time.Now()
	err := e.Sink.EnsureTables(ctx, []storage.TableSpec{e.GlossaryTable, e.UsageTable})
	metrics.RecordStep(StepEnsureTables, start, err)
	if err != nil {
		return fmt.Errorf("ensure tables: %w", err)
	}

	start = time.Now()
	terms := e.Fetcher.FetchAllTerms(ctx, e.PageSize)
	nodes := e.Fetcher.FetchAllNodes(ctx, e.PageSize)
	metrics.RecordStep(StepFetchGlossary, start, nil)
	sum.Terms, sum.Nodes = len(terms), len(nodes)
	log.Info("total entities to export",
		"total", len(terms)+len(nodes),
		"terms", len(terms),
		"nodes", len(nodes),
	)

	start = time.Now()
	all := make([]glossary.RawEntity, 0, len(terms)+len(nodes))
	all = append(append(all, terms...), nodes...)
	rows := e.Transformer.TransformEntities(all)
	metrics.RecordStep(StepTransformGlossary, start, nil)
	metrics.AddRecords("glossary_rows", len(rows))
	sum.GlossaryRows = len(rows)
	log.Info("transformed glossary rows", "rows", len(rows))

	values, err := storage.GlossaryValues(rows)
	if err != nil {
		return fmt.Errorf("glossary values: %w", err)
	}
	start = time.Now()
	sum.GlossaryWritten, err = e.load(ctx, log, e.GlossaryTable, values, sum)
	metrics.RecordStep(StepLoadGlossary, start, err)
	if err != nil {
		return err
	}

	log.Info("starting glossary term usage export")
	start = time.Now()
	usage := e.Fetcher.FetchAllUsage(ctx, terms, e.EntityTypes)
	metrics.RecordStep(StepFetchUsage, start, nil)
	sum.UsageRecords = len(usage)

	start = time.Now()
	usageRows := e.Transformer.TransformUsages(usage)
	metrics.RecordStep(StepTransformUsage, start, nil)
	metrics.AddRecords("usage_rows", len(usageRows))
	sum.UsageRows = len(usageRows)
	log.Info("transformed usage rows", "rows", len(usageRows))

	start = time.Now()
	sum.UsageWritten, err = e.load(ctx, log, e.UsageTable, storage.UsageValues(usageRows), sum)
	metrics.RecordStep(StepLoadUsage, start, err)
	return err
}

// load replaces table with values. An empty row set leaves the table as it
// is.
func (e *Exporter) load(ctx context.Context, log *slog.Logger, table storage.TableSpec, values [][]any, sum *Summary) (int64, error) {
	if len(values) == 0 {
		log.Info("no rows to insert", "table", table.Name)
		return 0, nil
	}

	values, dropped, err := storage.DedupeByKey(table, values)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", table.Name, err)
	}
	if dropped > 0 {
		log.Warn("dropped rows with duplicate primary key", "table", table.Name, "dropped", dropped)
		sum.Duplicates += dropped
	}

	n, err := e.Sink.ReplaceRows(ctx, table, values)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", table.Name, err)
	}
	log.Info("inserted rows", "table", table.Name, "rows", n)
	return n, nil
}

func (e *Exporter) runID() string {
	if e.NewRunID != nil {
		return e.NewRunID()
	}
	return uuid.NewString()
}
