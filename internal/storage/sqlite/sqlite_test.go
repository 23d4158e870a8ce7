package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glossaryexport/internal/glossary"
	"glossaryexport/internal/storage"
)

func strPtr(s string) *string { return &s }

func openTestSink(t *testing.T) (storage.Sink, *sql.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "export.db")
	sink, err := storage.New(context.Background(), storage.Config{Kind: Kind, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sink, db
}

func TestSink_GlossaryRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink, db := openTestSink(t)

	table := storage.GlossaryTable("DW.GOV.glossary")
	require.NoError(t, sink.EnsureTables(ctx, []storage.TableSpec{table}))
	// A second call is a no-op.
	require.NoError(t, sink.EnsureTables(ctx, []storage.TableSpec{table}))

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	rows, err := storage.GlossaryValues([]glossary.GlossaryRow{
		{
			URN:              "urn:li:glossaryTerm:a",
			Name:             strPtr("Revenue"),
			EntityType:       "GLOSSARY_TERM",
			HierarchicalPath: "Finance > Revenue",
			CustomProperties: map[string]string{"k": "v"},
			CreatedAt:        &created,
		},
		{
			URN:              "urn:li:glossaryNode:f",
			Name:             strPtr("Finance"),
			EntityType:       "GLOSSARY_NODE",
			HierarchicalPath: "Finance",
		},
	})
	require.NoError(t, err)

	n, err := sink.ReplaceRows(ctx, table, rows)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var (
		name, path, props, createdAt string
		owners                       sql.NullString
		lastUpdated                  string
	)
	err = db.QueryRowContext(ctx,
		`SELECT name, hierarchical_path, custom_properties, ownership, created_at, last_updated
		   FROM glossary WHERE urn = ?`, "urn:li:glossaryTerm:a").
		Scan(&name, &path, &props, &owners, &createdAt, &lastUpdated)
	require.NoError(t, err)

	assert.Equal(t, "Revenue", name)
	assert.Equal(t, "Finance > Revenue", path)
	assert.JSONEq(t, `{"k":"v"}`, props)
	assert.False(t, owners.Valid)
	assert.Equal(t, "2024-03-01T10:00:00Z", createdAt)
	assert.NotEmpty(t, lastUpdated)
}

func TestSink_ReplaceRowsReplacesPreviousContents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink, db := openTestSink(t)

	table := storage.UsageTable("usage")
	require.NoError(t, sink.EnsureTables(ctx, []storage.TableSpec{table}))

	first := storage.UsageValues([]glossary.UsageRow{
		{GlossaryTermURN: "t1", GlossaryTermName: "A", EntityURN: "e1", EntityType: "DASHBOARD"},
		{GlossaryTermURN: "t1", GlossaryTermName: "A", EntityURN: "e2", EntityType: "DASHBOARD"},
	})
	_, err := sink.ReplaceRows(ctx, table, first)
	require.NoError(t, err)

	second := storage.UsageValues([]glossary.UsageRow{
		{GlossaryTermURN: "t2", GlossaryTermName: "B", EntityURN: "e3", EntityType: "DASHBOARD", Platform: strPtr("looker")},
	})
	_, err = sink.ReplaceRows(ctx, table, second)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage`).Scan(&count))
	assert.Equal(t, 1, count)

	var platform string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT platform FROM usage WHERE entity_urn = 'e3'`).Scan(&platform))
	assert.Equal(t, "looker", platform)
}

func TestSink_FailedReplaceKeepsPreviousContents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink, db := openTestSink(t)

	table := storage.UsageTable("usage")
	require.NoError(t, sink.EnsureTables(ctx, []storage.TableSpec{table}))

	_, err := sink.ReplaceRows(ctx, table, storage.UsageValues([]glossary.UsageRow{
		{GlossaryTermURN: "t1", GlossaryTermName: "A", EntityURN: "e1", EntityType: "DASHBOARD"},
	}))
	require.NoError(t, err)

	// Duplicate primary key makes the insert fail after the delete ran.
	dup := storage.UsageValues([]glossary.UsageRow{
		{GlossaryTermURN: "t9", GlossaryTermName: "Z", EntityURN: "e9", EntityType: "DASHBOARD"},
		{GlossaryTermURN: "t9", GlossaryTermName: "Z", EntityURN: "e9", EntityType: "DASHBOARD"},
	})
	_, err = sink.ReplaceRows(ctx, table, dup)
	require.Error(t, err)

	var urn string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT entity_urn FROM usage`).Scan(&urn))
	assert.Equal(t, "e1", urn)
}

func TestDialect_ChunkRowsStaysUnderParameterLimit(t *testing.T) {
	t.Parallel()

	table := storage.GlossaryTable("g")
	n := Dialect{}.ChunkRows(table)
	assert.Equal(t, maxRows, n)
	assert.LessOrEqual(t, n*len(table.InsertColumns()), maxParams)
}

func TestDialect_UsesUnqualifiedName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `DELETE FROM "glossary"`, Dialect{}.Truncate(storage.GlossaryTable("DW.GOV.glossary")))
}
