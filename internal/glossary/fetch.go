package glossary

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"glossaryexport/internal/catalog"
	"glossaryexport/internal/logging"
	"glossaryexport/internal/metrics"
)

const (
	// DefaultPageSize is used for term and node searches when no positive
	// page size is configured.
	DefaultPageSize = 1000

	// UsagePageSize is the fixed page size of per-term usage searches.
	UsagePageSize = 100

	// UnknownTermName stands in for a glossary term without properties.name.
	UnknownTermName = "Unknown"
)

// Fetcher pages through catalog searches.
//
// Every fetch is best effort: a failed request ends pagination for that
// search and whatever was accumulated so far is returned.
type Fetcher struct {
	exec   catalog.Executor
	logger *slog.Logger
}

// NewFetcher returns a Fetcher issuing queries through exec. A nil logger
// discards output.
func NewFetcher(exec catalog.Executor, logger *slog.Logger) *Fetcher {
	return &Fetcher{exec: exec, logger: logging.OrDiscard(logger)}
}

// FetchAll runs q page by page and returns the entities of every page in
// order. filters are merged into the query input next to start and count.
func (f *Fetcher) FetchAll(ctx context.Context, q catalog.Query, pageSize int, filters map[string]any) []RawEntity {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []RawEntity
	start := 0
	for {
		input := make(map[string]any, len(filters)+2)
		for k, v := range filters {
			input[k] = v
		}
		input["start"] = start
		input["count"] = pageSize

		page, err := f.fetchPage(ctx, q, input)
		if err != nil {
			f.logger.Error("catalog query failed, returning partial results",
				"query", q.Operation, "start", start, "fetched", len(all), "err", err)
			return all
		}

		all = append(all, page.Entities...)
		f.logger.Debug("fetched page",
			"query", q.Operation, "start", start, "results", page.Results, "total", page.Total)

		if page.Results == 0 || start+pageSize >= page.Total {
			return all
		}
		start += pageSize
	}
}

func (f *Fetcher) fetchPage(ctx context.Context, q catalog.Query, input map[string]any) (page catalog.Page, err error) {
	started := time.Now()
	defer func() { metrics.RecordQuery(q.Operation, started, err) }()

	data, err := f.exec.Execute(ctx, q.Document, map[string]any{"input": input})
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.DecodePage(data, q.ResultPath)
}

// FetchAllTerms returns every glossary term.
func (f *Fetcher) FetchAllTerms(ctx context.Context, pageSize int) []RawEntity {
	terms := f.FetchAll(ctx, catalog.TermsQuery, pageSize, map[string]any{
		"type":  "GLOSSARY_TERM",
		"query": "*",
	})
	f.logger.Info("fetched glossary terms", "count", len(terms))
	metrics.AddRecords("terms", len(terms))
	return terms
}

// FetchAllNodes returns every glossary node.
func (f *Fetcher) FetchAllNodes(ctx context.Context, pageSize int) []RawEntity {
	nodes := f.FetchAll(ctx, catalog.NodesQuery, pageSize, map[string]any{
		"type":  "GLOSSARY_NODE",
		"query": "*",
	})
	f.logger.Info("fetched glossary nodes", "count", len(nodes))
	metrics.AddRecords("nodes", len(nodes))
	return nodes
}

// FetchUsageForTerm returns the entities of entityTypes tagged with termURN.
func (f *Fetcher) FetchUsageForTerm(ctx context.Context, termURN string, entityTypes []string) []RawEntity {
	return f.FetchAll(ctx, catalog.UsageQuery, UsagePageSize, map[string]any{
		"types": entityTypes,
		"query": "*",
		"filters": []map[string]any{
			{"field": "glossaryTerms", "values": []string{termURN}, "condition": "EQUAL"},
		},
	})
}

// FetchAllUsage collects usage for every term in input order. Terms without
// a urn are skipped; a term whose name is absent is recorded as
// UnknownTermName.
func (f *Fetcher) FetchAllUsage(ctx context.Context, terms []RawEntity, entityTypes []string) []UsageRecord {
	var records []UsageRecord
	for i, raw := range terms {
		if ctx.Err() != nil {
			f.logger.Warn("usage fetch cancelled", "fetched", len(records), "err", ctx.Err())
			break
		}

		urn, name := termIdentity(raw)
		if urn == "" {
			f.logger.Warn("glossary term missing urn, skipping usage fetch")
			continue
		}

		f.logger.Info("fetching term usage", "term", name, "index", i+1, "of", len(terms))
		entities := f.FetchUsageForTerm(ctx, urn, entityTypes)
		for _, e := range entities {
			records = append(records, UsageRecord{
				GlossaryTermURN:  urn,
				GlossaryTermName: name,
				Entity:           e,
			})
		}
		f.logger.Debug("fetched term usage", "urn", urn, "count", len(entities))
	}

	f.logger.Info("fetched glossary term usage", "terms", len(terms), "count", len(records))
	metrics.AddRecords("usage_records", len(records))
	return records
}

// termIdentity reads urn and properties.name of a glossary term.
func termIdentity(raw RawEntity) (urn, name string) {
	var t struct {
		URN        string      `json:"urn"`
		Properties *NamedProps `json:"properties"`
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return "", ""
	}
	if n := nameOf(t.Properties); n != nil {
		return t.URN, *n
	}
	return t.URN, UnknownTermName
}
