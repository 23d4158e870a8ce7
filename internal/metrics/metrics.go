// Package metrics is the small facade the export reports through.
//
// Core code only calls the package-level helpers. A concrete backend (for
// example internal/metrics/datadog) is installed once by the binary with
// SetBackend; until then every call is a no-op.
package metrics

import (
	"sync"
	"time"
)

// Labels are metric dimensions such as {"step": "fetch_terms", "status": "ok"}.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names.
const (
	RecordsTotal         = "glossary_export_records_total"
	StepTotal            = "glossary_export_step_total"
	StepDurationSeconds  = "glossary_export_step_duration_seconds"
	QueriesTotal         = "glossary_export_queries_total"
	QueryDurationSeconds = "glossary_export_query_duration_seconds"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. A nil b restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to the named counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush flushes the installed backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one finished step and its duration.
func RecordStep(step string, start time.Time, err error) {
	labels := Labels{"step": step, "status": status(err)}
	IncCounter(StepTotal, 1, labels)
	ObserveHistogram(StepDurationSeconds, time.Since(start).Seconds(), labels)
}

// RecordQuery counts one catalog request and its latency.
func RecordQuery(query string, start time.Time, err error) {
	labels := Labels{"query": query, "status": status(err)}
	IncCounter(QueriesTotal, 1, labels)
	ObserveHistogram(QueryDurationSeconds, time.Since(start).Seconds(), labels)
}

// AddRecords counts rows of the given kind (terms, nodes, glossary_rows, usage_rows, ...).
func AddRecords(kind string, n int) {
	if n > 0 {
		IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
