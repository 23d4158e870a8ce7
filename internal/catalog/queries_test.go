package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQueries(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateQueries())
}

func TestValidateQuery_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		q       Query
		wantErr string
	}{
		{
			name:    "syntax_error",
			q:       Query{Operation: "x", ResultPath: "search", Document: `query x { search(input: $input) {`},
			wantErr: "parse x",
		},
		{
			name:    "wrong_operation_name",
			q:       Query{Operation: "x", ResultPath: "search", Document: `query y { search { total } }`},
			wantErr: `operation is named "y"`,
		},
		{
			name:    "wrong_root_field",
			q:       Query{Operation: "x", ResultPath: "search", Document: `query x { searchAcrossEntities { total } }`},
			wantErr: "root field",
		},
		{
			name:    "two_operations",
			q:       Query{Operation: "x", ResultPath: "search", Document: `query x { search { total } } query z { search { total } }`},
			wantErr: "expected 1 operation",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := validateQuery(tc.q)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestUsageQuery_CoversConsumerTypes(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"Dataset", "Dashboard", "Chart", "DataJob"} {
		assert.True(t, strings.Contains(UsageQuery.Document, "... on "+typ+" {"), typ)
	}
}

func TestDecodePage(t *testing.T) {
	t.Parallel()

	t.Run("entities_in_order_nulls_skipped", func(t *testing.T) {
		p, err := DecodePage(json.RawMessage(`{"search":{"start":0,"count":3,"total":9,
		  "searchResults":[{"entity":{"urn":"a"}},{"entity":null},{"entity":{"urn":"b"}}]}}`), "search")
		require.NoError(t, err)
		assert.Equal(t, 9, p.Total)
		assert.Equal(t, 3, p.Results)
		require.Len(t, p.Entities, 2)
		assert.JSONEq(t, `{"urn":"b"}`, string(p.Entities[1]))
	})

	t.Run("missing_result_path", func(t *testing.T) {
		p, err := DecodePage(json.RawMessage(`{"other":{}}`), "search")
		require.NoError(t, err)
		assert.Zero(t, p.Results)
		assert.Empty(t, p.Entities)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodePage(json.RawMessage(`{"search":{"total":"many"}}`), "search")
		require.Error(t, err)
	})
}
