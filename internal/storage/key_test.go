package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	s := " urn:x "
	assert.Equal(t, "", NormalizeKey(nil))
	assert.Equal(t, "urn:x", NormalizeKey(s))
	assert.Equal(t, "urn:x", NormalizeKey(&s))
	assert.Equal(t, "", NormalizeKey((*string)(nil)))
	assert.Equal(t, "urn:x", NormalizeKey([]byte(s)))
	assert.Equal(t, "42", NormalizeKey(42))
	assert.Equal(t, "42", NormalizeKey(int64(42)))
}

func TestDedupeByKey_KeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	tbl := UsageTable("u")
	row := func(term, entity, name string) []any {
		r := make([]any, len(tbl.InsertColumns()))
		r[0], r[1], r[2] = term, name, entity
		return r
	}

	rows := [][]any{
		row("t1", "e1", "first"),
		row("t1", "e1", "second"), // duplicate key, dropped
		row("t1", "e2", "other"),
		row("t2", "e1", "other-term"),
		row("t1", "e1", "third"), // duplicate key, dropped
	}

	got, dropped, err := DedupeByKey(tbl, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0][1])
	assert.Equal(t, "e2", got[1][2])
	assert.Equal(t, "t2", got[2][0])
}

func TestDedupeByKey_Errors(t *testing.T) {
	t.Parallel()

	tbl := GlossaryTable("g")
	_, _, err := DedupeByKey(tbl, [][]any{{"short"}})
	assert.Error(t, err)

	tbl.PrimaryKey = []string{"last_updated"}
	_, _, err = DedupeByKey(tbl, nil)
	assert.Error(t, err)
}

func TestDedupeByKey_NoPrimaryKey(t *testing.T) {
	t.Parallel()

	tbl := GlossaryTable("g")
	tbl.PrimaryKey = nil
	rows := [][]any{{"a"}, {"a"}}
	got, dropped, err := DedupeByKey(tbl, rows)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Equal(t, rows, got)
}
