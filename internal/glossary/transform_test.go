package glossary

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullTerm = `{
  "urn": "urn:li:glossaryTerm:revenue",
  "type": "GLOSSARY_TERM",
  "name": "revenue",
  "hierarchicalName": "Finance.Metrics.Revenue",
  "properties": {
    "name": "Revenue",
    "description": null,
    "definition": "Money in",
    "termSource": "INTERNAL",
    "customProperties": [{"key": "a", "value": "1"}, {"key": "b", "value": "2"}],
    "createdOn": {"time": 1700000000000}
  },
  "parentNodes": {"nodes": [
    {"urn": "urn:li:glossaryNode:metrics", "properties": {"name": "Metrics"}},
    {"urn": "urn:li:glossaryNode:finance", "properties": {"name": "Finance"}}
  ]},
  "domain": {"domain": {"urn": "urn:li:domain:fin", "properties": {"name": "Finance"}}},
  "ownership": {"owners": [
    {"owner": {"urn": "urn:li:corpuser:jdoe", "type": "CORP_USER", "username": "jdoe"}, "type": "TECHNICAL_OWNER"},
    {"owner": {"urn": "urn:li:corpGroup:grp", "type": "CORP_GROUP", "name": "grp"}, "type": "BUSINESS_OWNER"},
    {"owner": null, "type": "NONE"}
  ]}
}`

func newTestTransformer(buf *bytes.Buffer) *Transformer {
	return NewTransformer(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestTransformEntity_FullTerm(t *testing.T) {
	t.Parallel()

	row := NewTransformer(nil).TransformEntity(RawEntity(fullTerm))
	require.NotNil(t, row)

	assert.Equal(t, "urn:li:glossaryTerm:revenue", row.URN)
	assert.Equal(t, "Revenue", *row.Name)
	assert.Equal(t, "glossary_term", row.EntityType)
	assert.Equal(t, "Money in", *row.Description)
	assert.Equal(t, "urn:li:glossaryNode:metrics", *row.ParentNodeURN)
	assert.Equal(t, "Metrics", *row.ParentNodeName)
	assert.Equal(t, "Finance.Metrics.Revenue", row.HierarchicalPath)
	assert.Equal(t, "urn:li:domain:fin", *row.DomainURN)
	assert.Equal(t, "Finance", *row.DomainName)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, row.CustomProperties)
	assert.Equal(t, int64(1700000000000), *row.CreatedAt)

	require.Len(t, row.Ownership, 2)
	assert.Equal(t, "jdoe", *row.Ownership[0].Username)
	assert.Equal(t, "grp", *row.Ownership[1].Username)
	assert.Equal(t, "BUSINESS_OWNER", *row.Ownership[1].Type)
}

func TestTransformEntity_Fallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, row *GlossaryRow)
	}{
		{
			name: "description_wins_over_definition",
			raw:  `{"urn":"u","type":"GLOSSARY_TERM","properties":{"description":"Desc","definition":"Def"}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Equal(t, "Desc", *row.Description)
			},
		},
		{
			name: "empty_description_falls_back_to_definition",
			raw:  `{"urn":"u","type":"GLOSSARY_TERM","properties":{"description":"","definition":"D"}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Equal(t, "D", *row.Description)
			},
		},
		{
			name: "path_rebuilt_from_parents_without_hierarchical_name",
			raw: `{"urn":"u","type":"GLOSSARY_NODE","properties":{"name":"Leaf"},
			       "parentNodes":{"nodes":[{"properties":{"name":"Root"}},{"properties":{"name":"L1"}}]}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Equal(t, "Root > L1", row.HierarchicalPath)
				assert.Nil(t, row.ParentNodeURN)
				assert.Equal(t, "Root", *row.ParentNodeName)
				assert.Equal(t, "glossary_node", row.EntityType)
			},
		},
		{
			name: "path_falls_back_to_name",
			raw:  `{"urn":"u","type":"GLOSSARY_NODE","properties":{"name":"Top"},"parentNodes":{"nodes":[]}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Equal(t, "Top", row.HierarchicalPath)
			},
		},
		{
			name: "no_properties_at_all",
			raw:  `{"urn":"u","type":"GLOSSARY_TERM"}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Nil(t, row.Name)
				assert.Nil(t, row.Description)
				assert.Empty(t, row.HierarchicalPath)
				assert.Nil(t, row.CustomProperties)
				assert.Nil(t, row.Ownership)
				assert.Nil(t, row.CreatedAt)
				assert.Nil(t, row.DomainURN)
			},
		},
		{
			name: "empty_custom_properties_are_null",
			raw:  `{"urn":"u","type":"GLOSSARY_TERM","properties":{"customProperties":[]}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Nil(t, row.CustomProperties)
			},
		},
		{
			name: "domain_without_inner_domain",
			raw:  `{"urn":"u","type":"GLOSSARY_TERM","domain":{"domain":null}}`,
			check: func(t *testing.T, row *GlossaryRow) {
				assert.Nil(t, row.DomainURN)
				assert.Nil(t, row.DomainName)
			},
		},
	}

	tr := NewTransformer(nil)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			row := tr.TransformEntity(RawEntity(tc.raw))
			require.NotNil(t, row)
			tc.check(t, row)
		})
	}
}

func TestTransformEntity_Dropped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantLog string
	}{
		{name: "missing_urn", raw: `{"type":"GLOSSARY_TERM","properties":{"name":"x"}}`, wantLog: "entity missing urn"},
		{name: "null_urn", raw: `{"urn":null,"type":"GLOSSARY_TERM"}`, wantLog: "entity missing urn"},
		{name: "wrong_shape", raw: `{"urn":"urn:bad","properties":{"customProperties":"oops"}}`, wantLog: "urn=urn:bad"},
		{name: "not_json", raw: `{`, wantLog: "transform entity failed"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			row := newTestTransformer(&buf).TransformEntity(RawEntity(tc.raw))
			assert.Nil(t, row)
			assert.Contains(t, buf.String(), tc.wantLog)
		})
	}
}

func TestTransformEntities_KeepsOnlyValidRows(t *testing.T) {
	t.Parallel()

	rows := NewTransformer(nil).TransformEntities([]RawEntity{
		RawEntity(`{"urn":"urn:li:glossaryTerm:ok","type":"GLOSSARY_TERM","properties":{"name":"Ok"}}`),
		RawEntity(`{"type":"GLOSSARY_TERM","properties":{"name":"No urn"}}`),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "urn:li:glossaryTerm:ok", rows[0].URN)
}

func TestTransformUsage(t *testing.T) {
	t.Parallel()

	rec := UsageRecord{
		GlossaryTermURN:  "urn:li:glossaryTerm:revenue",
		GlossaryTermName: "Revenue",
		Entity: RawEntity(`{
		  "urn": "urn:li:dashboard:(looker,sales)",
		  "type": "DASHBOARD",
		  "properties": {"name": "Sales", "description": "d"},
		  "platform": {"name": "looker"},
		  "subTypes": {"typeNames": ["Report", "Legacy"]},
		  "container": {"urn": "urn:li:container:c1", "properties": {"name": "Folder"}},
		  "domain": {"domain": {"urn": "urn:li:domain:fin", "properties": {"name": "Finance"}}}
		}`),
	}

	row := NewTransformer(nil).TransformUsage(rec)
	require.NotNil(t, row)
	assert.Equal(t, UsageRow{
		GlossaryTermURN:  "urn:li:glossaryTerm:revenue",
		GlossaryTermName: "Revenue",
		EntityURN:        "urn:li:dashboard:(looker,sales)",
		EntityName:       strp("Sales"),
		EntityType:       "dashboard",
		EntitySubtype:    strp("Report"),
		Platform:         strp("looker"),
		ContainerURN:     strp("urn:li:container:c1"),
		ContainerName:    strp("Folder"),
		DomainURN:        strp("urn:li:domain:fin"),
		DomainName:       strp("Finance"),
	}, *row)
}

func TestTransformUsage_SparseEntity(t *testing.T) {
	t.Parallel()

	row := NewTransformer(nil).TransformUsage(UsageRecord{
		GlossaryTermURN:  "t",
		GlossaryTermName: "T",
		Entity:           RawEntity(`{"urn":"urn:li:dataJob:j","type":"DATA_JOB","subTypes":{"typeNames":[]}}`),
	})
	require.NotNil(t, row)
	assert.Equal(t, "data_job", row.EntityType)
	assert.Nil(t, row.EntityName)
	assert.Nil(t, row.EntitySubtype)
	assert.Nil(t, row.Platform)
	assert.Nil(t, row.ContainerURN)
	assert.Nil(t, row.DomainName)
}

func TestTransformUsage_Dropped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     UsageRecord
		wantLog string
	}{
		{
			name:    "missing_entity_urn",
			rec:     UsageRecord{GlossaryTermURN: "t", GlossaryTermName: "T", Entity: RawEntity(`{"type":"DASHBOARD"}`)},
			wantLog: "usage entity missing urn",
		},
		{
			name:    "nil_entity",
			rec:     UsageRecord{GlossaryTermURN: "t", GlossaryTermName: "T"},
			wantLog: "usage entity missing urn",
		},
		{
			name:    "missing_term_urn",
			rec:     UsageRecord{GlossaryTermName: "T", Entity: RawEntity(`{"urn":"e","type":"DASHBOARD"}`)},
			wantLog: "missing glossary term info",
		},
		{
			name:    "missing_term_name",
			rec:     UsageRecord{GlossaryTermURN: "t", Entity: RawEntity(`{"urn":"e","type":"DASHBOARD"}`)},
			wantLog: "missing glossary term info",
		},
		{
			name:    "wrong_shape",
			rec:     UsageRecord{GlossaryTermURN: "t", GlossaryTermName: "T", Entity: RawEntity(`{"urn":"e","subTypes":{"typeNames":"x"}}`)},
			wantLog: "transform usage record failed",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			assert.Nil(t, newTestTransformer(&buf).TransformUsage(tc.rec))
			assert.Contains(t, buf.String(), tc.wantLog)
		})
	}
}
