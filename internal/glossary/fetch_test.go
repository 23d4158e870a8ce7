package glossary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"glossaryexport/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query string
	input map[string]any
}

// fakeExecutor answers each request with respond and records the input.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []call
	respond func(n int, c call) (json.RawMessage, error)
}

func (f *fakeExecutor) Execute(_ context.Context, query string, vars map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	c := call{query: query, input: vars["input"].(map[string]any)}
	f.calls = append(f.calls, c)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(n, c)
}

func (f *fakeExecutor) starts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.input["start"].(int))
	}
	return out
}

// searchData builds a data object with n entities urn-prefixed by prefix.
func searchData(field string, start, n, total int, prefix string) json.RawMessage {
	results := make([]string, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, fmt.Sprintf(`{"entity":{"urn":"%s%d","type":"GLOSSARY_TERM"}}`, prefix, start+i))
	}
	return json.RawMessage(fmt.Sprintf(`{"%s":{"start":%d,"count":%d,"total":%d,"searchResults":[%s]}}`,
		field, start, n, total, strings.Join(results, ",")))
}

func TestFetchAll_PagesUntilTotal(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		start := c.input["start"].(int)
		size := min(100, 250-start)
		return searchData("search", start, size, 250, "urn:t"), nil
	}}

	got := NewFetcher(exec, nil).FetchAll(context.Background(), catalog.TermsQuery, 100, map[string]any{"type": "GLOSSARY_TERM"})

	assert.Len(t, got, 250)
	assert.Equal(t, []int{0, 100, 200}, exec.starts())
	for _, c := range exec.calls {
		assert.Equal(t, 100, c.input["count"])
		assert.Equal(t, "GLOSSARY_TERM", c.input["type"])
		assert.Equal(t, catalog.TermsQuery.Document, c.query)
	}
}

func TestFetchAll_ZeroResultsStops(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return searchData("search", 0, 0, 500, ""), nil
	}}

	got := NewFetcher(exec, nil).FetchAll(context.Background(), catalog.TermsQuery, 100, nil)
	assert.Empty(t, got)
	assert.Len(t, exec.calls, 1)
}

func TestFetchAll_ErrorReturnsPartial(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		if n == 2 {
			return nil, errors.New("502 bad gateway")
		}
		return searchData("search", c.input["start"].(int), 10, 30, "urn:t"), nil
	}}

	got := NewFetcher(exec, nil).FetchAll(context.Background(), catalog.TermsQuery, 10, nil)
	assert.Len(t, got, 10)
	assert.Len(t, exec.calls, 2)
}

func TestFetchAll_SkipsNullEntities(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return json.RawMessage(`{"search":{"total":3,"searchResults":[{"entity":null},{"entity":{"urn":"a"}},{}]}}`), nil
	}}

	got := NewFetcher(exec, nil).FetchAll(context.Background(), catalog.TermsQuery, 10, nil)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"urn":"a"}`, string(got[0]))
}

func TestFetchAll_DefaultPageSize(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return searchData("search", 0, 1, 1, "urn:t"), nil
	}}

	NewFetcher(exec, nil).FetchAll(context.Background(), catalog.NodesQuery, 0, nil)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, DefaultPageSize, exec.calls[0].input["count"])
}

func TestFetchAllUsage_SkipsTermsWithoutURN(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return searchData("searchAcrossEntities", 0, 2, 2, "urn:li:dashboard:"), nil
	}}

	terms := []RawEntity{
		RawEntity(`{"urn":null,"properties":{"name":"Orphan"}}`),
		RawEntity(`{"urn":"t2","properties":{"name":"Second"}}`),
		RawEntity(`{"urn":"t3"}`),
	}
	records := NewFetcher(exec, nil).FetchAllUsage(context.Background(), terms, []string{"DASHBOARD"})

	require.Len(t, exec.calls, 2)
	for i, want := range []string{"t2", "t3"} {
		c := exec.calls[i]
		assert.Equal(t, catalog.UsageQuery.Document, c.query)
		assert.Equal(t, UsagePageSize, c.input["count"])
		assert.Equal(t, []string{"DASHBOARD"}, c.input["types"])
		filters := c.input["filters"].([]map[string]any)
		require.Len(t, filters, 1)
		assert.Equal(t, []string{want}, filters[0]["values"])
		assert.Equal(t, "glossaryTerms", filters[0]["field"])
	}

	require.Len(t, records, 4)
	assert.Equal(t, "t2", records[0].GlossaryTermURN)
	assert.Equal(t, "Second", records[0].GlossaryTermName)
	assert.Equal(t, "t3", records[2].GlossaryTermURN)
	assert.Equal(t, UnknownTermName, records[2].GlossaryTermName)
}

func TestFetchAllUsage_StopsOnCancel(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return searchData("searchAcrossEntities", 0, 1, 1, "e"), nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := NewFetcher(exec, nil).FetchAllUsage(ctx, []RawEntity{RawEntity(`{"urn":"t1"}`)}, []string{"DATASET"})
	assert.Empty(t, records)
	assert.Empty(t, exec.calls)
}

func TestFetchThenTransform_EndToEnd(t *testing.T) {
	t.Parallel()

	exec := &fakeExecutor{respond: func(n int, c call) (json.RawMessage, error) {
		return json.RawMessage(`{"search":{"total":2,"searchResults":[
		  {"entity":{"urn":"urn:li:glossaryTerm:ok","type":"GLOSSARY_TERM","properties":{"name":"Ok"}}},
		  {"entity":{"type":"GLOSSARY_TERM","properties":{"name":"Broken"}}}
		]}}`), nil
	}}

	raws := NewFetcher(exec, nil).FetchAllTerms(context.Background(), 1000)
	require.Len(t, raws, 2)

	rows := NewTransformer(nil).TransformEntities(raws)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ok", *rows[0].Name)
	assert.Equal(t, "Ok", rows[0].HierarchicalPath)
}
