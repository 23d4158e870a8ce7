// Package sqlite is the SQLite backend. It is handy for local runs and is
// the real database the tests write to.
package sqlite

import (
	"context"
	"time"

	_ "modernc.org/sqlite"

	"glossaryexport/internal/storage"
	"glossaryexport/internal/storage/sqlsink"
)

// Kind is the connection kind this backend registers under.
const Kind = "sqlite"

// maxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite >= 3.32.
const (
	maxParams = 32766
	maxRows   = 500
)

func init() {
	storage.Register(Kind, New)
}

// New opens the SQLite database file named by cfg.DSN.
//
// The pool is limited to one connection: SQLite allows a single writer and an
// in-memory database exists only on the connection that created it.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	s, err := sqlsink.Open(ctx, Dialect{}, sqlsink.Options{
		Driver:       "sqlite",
		DSN:          cfg.DSN,
		MaxOpenConns: 1,
		Logger:       cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Dialect renders SQLite statements.
//
// SQLite has no schemas in the warehouse sense, so only the last part of a
// qualified table name is used. Every column has TEXT affinity; timestamps
// are stored as RFC3339Nano strings.
type Dialect struct{}

var syntax = sqlsink.Syntax{
	Quote:       sqlsink.DoubleQuote,
	Type:        func(storage.ColumnSpec) string { return "TEXT" },
	Now:         "CURRENT_TIMESTAMP",
	Placeholder: sqlsink.Question,
	Bind: func(_ storage.ColumnSpec, v any) any {
		if ts, ok := v.(time.Time); ok {
			return formatSQLiteTime(ts)
		}
		return v
	},
}

func (Dialect) Name() string { return Kind }

func (Dialect) CreateTable(t storage.TableSpec) ([]string, error) {
	stmt, err := syntax.CreateIfNotExists(local(t))
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}

// Truncate uses DELETE FROM; SQLite has no TRUNCATE statement.
func (Dialect) Truncate(t storage.TableSpec) string {
	return "DELETE FROM " + syntax.Table(local(t).Name)
}

func (Dialect) Insert(t storage.TableSpec, rows [][]any) (string, []any) {
	return syntax.InsertValues(local(t), rows)
}

func (Dialect) ChunkRows(t storage.TableSpec) int {
	return storage.ChunkSize(len(t.InsertColumns()), maxParams, maxRows)
}

// local drops any database or schema qualifier from the table name.
func local(t storage.TableSpec) storage.TableSpec {
	if parts := storage.SplitName(t.Name); len(parts) > 0 {
		t.Name = parts[len(parts)-1]
	}
	return t
}

// formatSQLiteTime formats a time as RFC3339Nano in UTC.
func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
