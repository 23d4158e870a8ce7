package sqlsink

import (
	"fmt"
	"strings"

	"glossaryexport/internal/storage"
)

// Syntax is the per-database vocabulary the shared builders need.
type Syntax struct {
	// Quote quotes one identifier part.
	Quote func(string) string
	// Type maps a column to its native type.
	Type func(c storage.ColumnSpec) string
	// Now is the expression used for storage.DefaultNow columns.
	Now string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Bind converts a value before it is sent. Nil sends values unchanged.
	Bind func(c storage.ColumnSpec, v any) any
}

// Table quotes a possibly qualified table name.
func (s Syntax) Table(name string) string {
	return storage.QuoteName(name, s.Quote)
}

// ColumnDefs renders the body of a CREATE TABLE statement: one definition
// per column followed by the primary key constraint.
func (s Syntax) ColumnDefs(t storage.TableSpec) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		pk[k] = true
	}

	parts := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		typ := s.Type(c)
		if typ == "" {
			return "", fmt.Errorf("column %s: unsupported type %q", c.Name, c.Type)
		}
		def := s.Quote(c.Name) + " " + typ
		if pk[c.Name] {
			def += " NOT NULL"
		}
		if c.Default == storage.DefaultNow {
			def += " DEFAULT " + s.Now
		}
		parts = append(parts, def)
	}
	if len(t.PrimaryKey) > 0 {
		parts = append(parts, "PRIMARY KEY ("+s.List(t.PrimaryKey)+")")
	}
	return strings.Join(parts, ", "), nil
}

// CreateIfNotExists renders CREATE TABLE IF NOT EXISTS for t.
func (s Syntax) CreateIfNotExists(t storage.TableSpec) (string, error) {
	defs, err := s.ColumnDefs(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table(t.Name), defs), nil
}

// List quotes and comma-joins column names.
func (s Syntax) List(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = s.Quote(c)
	}
	return strings.Join(out, ", ")
}

// InsertValues renders a single INSERT ... VALUES (...), (...) for rows.
func (s Syntax) InsertValues(t storage.TableSpec, rows [][]any) (string, []any) {
	cols := t.InsertColumnSpecs()
	names := t.InsertColumns()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.Table(t.Name))
	b.WriteString(" (")
	b.WriteString(s.List(names))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.Placeholder(p))
			args = append(args, s.bind(c, row[j]))
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

func (s Syntax) bind(c storage.ColumnSpec, v any) any {
	if s.Bind == nil || v == nil {
		return v
	}
	return s.Bind(c, v)
}

// Question renders "?" placeholders.
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// AtP renders "@pn" placeholders.
func AtP(n int) string { return fmt.Sprintf("@p%d", n) }

// DoubleQuote quotes an identifier with double quotes, doubling embedded ones.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Bracket quotes an identifier with brackets, escaping ']' as ']]'.
func Bracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// Backtick quotes an identifier with backticks, doubling embedded ones.
func Backtick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
