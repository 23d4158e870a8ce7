// Package storage defines the warehouse sink the export writes to, the
// table layouts it writes, and the registry backends plug into.
package storage

import (
	"fmt"
	"strings"
)

// ColumnType is a logical column type. Each backend maps it to a native type.
type ColumnType string

const (
	// TypeKey is a bounded string that takes part in the primary key.
	TypeKey ColumnType = "key"
	// TypeShort is a bounded string (urns, names, type labels).
	TypeShort ColumnType = "short"
	// TypeText is an unbounded string.
	TypeText ColumnType = "text"
	// TypeJSON holds a JSON document, passed in as a string.
	TypeJSON ColumnType = "json"
	// TypeTimestamp is a timestamp without time zone, passed in as a UTC time.Time.
	TypeTimestamp ColumnType = "timestamp"
)

// DefaultNow marks a column filled by the database with the current time.
const DefaultNow = "now"

type ColumnSpec struct {
	Name string
	Type ColumnType
	// Size bounds TypeKey and TypeShort columns.
	Size int
	// Default is "" or DefaultNow. Defaulted columns are never inserted.
	Default string
}

type TableSpec struct {
	// Name may be qualified as schema.table or database.schema.table.
	Name       string
	Columns    []ColumnSpec
	PrimaryKey []string
}

// InsertColumns returns the names of the columns a row supplies, in order.
func (t TableSpec) InsertColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Default == "" {
			out = append(out, c.Name)
		}
	}
	return out
}

// InsertColumnSpecs is InsertColumns with the full column specs.
func (t TableSpec) InsertColumnSpecs() []ColumnSpec {
	out := make([]ColumnSpec, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Default == "" {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that the table can be rendered to DDL.
func (t TableSpec) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" || c.Type == "" {
			return fmt.Errorf("table %s: column name/type must be set", t.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = true
	}
	for _, k := range t.PrimaryKey {
		if !seen[k] {
			return fmt.Errorf("table %s: primary key column %s is not defined", t.Name, k)
		}
	}
	return nil
}

// CheckRows verifies that every row has one value per insert column.
func (t TableSpec) CheckRows(rows [][]any) error {
	want := len(t.InsertColumns())
	for i, r := range rows {
		if len(r) != want {
			return fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, i, len(r), want)
		}
	}
	return nil
}

// SplitName splits a qualified name into its dot-separated parts.
//
// Examples:
//   - "DW.GOV.glossary" => ["DW", "GOV", "glossary"]
//   - "glossary"        => ["glossary"]
func SplitName(name string) []string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// QuoteName quotes every part of a qualified name with quote and joins them
// with dots.
func QuoteName(name string, quote func(string) string) string {
	parts := SplitName(name)
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// GlossaryTable is the layout of the glossary term and node table.
func GlossaryTable(name string) TableSpec {
	return TableSpec{
		Name: name,
		Columns: []ColumnSpec{
			{Name: "urn", Type: TypeKey, Size: 500},
			{Name: "name", Type: TypeShort, Size: 500},
			{Name: "entity_type", Type: TypeShort, Size: 50},
			{Name: "description", Type: TypeText},
			{Name: "parent_node_urn", Type: TypeShort, Size: 500},
			{Name: "parent_node_name", Type: TypeShort, Size: 500},
			{Name: "hierarchical_path", Type: TypeText},
			{Name: "domain_urn", Type: TypeShort, Size: 500},
			{Name: "domain_name", Type: TypeShort, Size: 500},
			{Name: "custom_properties", Type: TypeJSON},
			{Name: "ownership", Type: TypeJSON},
			{Name: "created_at", Type: TypeTimestamp},
			{Name: "last_updated", Type: TypeTimestamp, Default: DefaultNow},
		},
		PrimaryKey: []string{"urn"},
	}
}

// UsageTable is the layout of the glossary term usage table.
func UsageTable(name string) TableSpec {
	return TableSpec{
		Name: name,
		Columns: []ColumnSpec{
			{Name: "glossary_term_urn", Type: TypeKey, Size: 500},
			{Name: "glossary_term_name", Type: TypeShort, Size: 500},
			{Name: "entity_urn", Type: TypeKey, Size: 500},
			{Name: "entity_name", Type: TypeShort, Size: 500},
			{Name: "entity_type", Type: TypeShort, Size: 50},
			{Name: "entity_subtype", Type: TypeShort, Size: 100},
			{Name: "platform", Type: TypeShort, Size: 100},
			{Name: "container_urn", Type: TypeShort, Size: 500},
			{Name: "container_name", Type: TypeShort, Size: 500},
			{Name: "domain_urn", Type: TypeShort, Size: 500},
			{Name: "domain_name", Type: TypeShort, Size: 500},
			{Name: "last_updated", Type: TypeTimestamp, Default: DefaultNow},
		},
		PrimaryKey: []string{"glossary_term_urn", "entity_urn"},
	}
}
