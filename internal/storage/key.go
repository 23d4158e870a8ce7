package storage

import (
	"fmt"
	"strings"
)

// NormalizeKey converts a key column value to a canonical string form,
// suitable for in-memory dedupe keys (e.g. "urn:li:glossaryTerm:abc").
func NormalizeKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case *string:
		if t == nil {
			return ""
		}
		return strings.TrimSpace(*t)
	case int64:
		return fmt.Sprintf("%d", t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// DedupeByKey keeps the first row for every primary key value of t and
// returns the kept rows in their original order with the number dropped.
//
// A paginated catalog search can return an entity twice when the catalog
// changes between pages; loading both would violate the primary key.
func DedupeByKey(t TableSpec, rows [][]any) ([][]any, int, error) {
	if len(t.PrimaryKey) == 0 {
		return rows, 0, nil
	}

	cols := t.InsertColumns()
	idx := make([]int, 0, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		pos := -1
		for i, c := range cols {
			if c == k {
				pos = i
				break
			}
		}
		if pos < 0 {
			return nil, 0, fmt.Errorf("table %s: primary key column %s is not an insert column", t.Name, k)
		}
		idx = append(idx, pos)
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([][]any, 0, len(rows))
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, 0, fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, i, len(r), len(cols))
		}
		parts := make([]string, len(idx))
		for j, p := range idx {
			parts[j] = NormalizeKey(r[p])
		}
		key := strings.Join(parts, "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(rows) - len(out), nil
}
