package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	name   string
	value  float64
	labels Labels
}

type recordingBackend struct {
	mu         sync.Mutex
	counters   []observation
	histograms []observation
	flushes    int
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, observation{name, delta, labels})
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms = append(r.histograms, observation{name, value, labels})
}

func (r *recordingBackend) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

// These tests swap the package-level backend, so they do not run in parallel.

func TestNopBackendByDefault(t *testing.T) {
	SetBackend(nil)
	IncCounter(RecordsTotal, 1, Labels{"kind": "terms"})
	ObserveHistogram(StepDurationSeconds, 1, nil)
	require.NoError(t, Flush())
}

func TestRecordStep(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	RecordStep("fetch_terms", time.Now().Add(-time.Second), nil)
	RecordStep("replace_glossary", time.Now(), errors.New("boom"))

	require.Len(t, rb.counters, 2)
	assert.Equal(t, StepTotal, rb.counters[0].name)
	assert.Equal(t, Labels{"step": "fetch_terms", "status": "ok"}, rb.counters[0].labels)
	assert.Equal(t, Labels{"step": "replace_glossary", "status": "error"}, rb.counters[1].labels)

	require.Len(t, rb.histograms, 2)
	assert.Equal(t, StepDurationSeconds, rb.histograms[0].name)
	assert.GreaterOrEqual(t, rb.histograms[0].value, 1.0)
}

func TestRecordQuery(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	RecordQuery("searchGlossaryTerms", time.Now(), nil)

	require.Len(t, rb.counters, 1)
	assert.Equal(t, QueriesTotal, rb.counters[0].name)
	assert.Equal(t, Labels{"query": "searchGlossaryTerms", "status": "ok"}, rb.counters[0].labels)
	require.Len(t, rb.histograms, 1)
	assert.Equal(t, QueryDurationSeconds, rb.histograms[0].name)
}

func TestAddRecords_SkipsZero(t *testing.T) {
	rb := &recordingBackend{}
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	AddRecords("terms", 0)
	AddRecords("terms", 3)
	require.NoError(t, Flush())

	require.Len(t, rb.counters, 1)
	assert.Equal(t, 3.0, rb.counters[0].value)
	assert.Equal(t, 1, rb.flushes)
}
