// Package mysql is the MySQL backend.
package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"glossaryexport/internal/storage"
	"glossaryexport/internal/storage/sqlsink"
)

// Kind is the connection kind this backend registers under.
const Kind = "mysql"

const (
	maxParams = 65535
	maxRows   = 1000
	// maxKeyBytes is the InnoDB index key prefix limit; utf8mb4 needs up to
	// four bytes per character.
	maxKeyBytes  = 3072
	bytesPerChar = 4
)

func init() {
	storage.Register(Kind, New)
}

// New opens a MySQL connection. The DSN uses the go-sql-driver format, e.g.
// user:pass@tcp(db:3306)/warehouse. Times are always sent as UTC.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	s, err := sqlsink.Open(ctx, Dialect{}, sqlsink.Options{
		Driver: "mysql",
		DSN:    dsn,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	c.Loc = time.UTC
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// Dialect renders MySQL statements.
//
// MySQL has no schema level below the database, so a three part name
// database.schema.table is addressed as schema.table.
type Dialect struct{}

var syntax = sqlsink.Syntax{
	Quote:       sqlsink.Backtick,
	Type:        columnType,
	Now:         "CURRENT_TIMESTAMP(3)",
	Placeholder: sqlsink.Question,
}

func columnType(c storage.ColumnSpec) string {
	switch c.Type {
	case storage.TypeKey, storage.TypeShort:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "LONGTEXT"
	case storage.TypeText:
		return "LONGTEXT"
	case storage.TypeJSON:
		return "JSON"
	case storage.TypeTimestamp:
		return "DATETIME(3)"
	}
	return ""
}

func (Dialect) Name() string { return Kind }

func (Dialect) CreateTable(t storage.TableSpec) ([]string, error) {
	stmt, err := syntax.CreateIfNotExists(fitKeys(local(t)))
	if err != nil {
		return nil, err
	}
	return []string{stmt + " DEFAULT CHARSET=utf8mb4"}, nil
}

// Truncate uses DELETE FROM: TRUNCATE TABLE commits implicitly and would
// end the replace transaction early.
func (Dialect) Truncate(t storage.TableSpec) string {
	return "DELETE FROM " + syntax.Table(local(t).Name)
}

func (Dialect) Insert(t storage.TableSpec, rows [][]any) (string, []any) {
	return syntax.InsertValues(local(t), rows)
}

func (Dialect) ChunkRows(t storage.TableSpec) int {
	return storage.ChunkSize(len(t.InsertColumns()), maxParams, maxRows)
}

func local(t storage.TableSpec) storage.TableSpec {
	if parts := storage.SplitName(t.Name); len(parts) == 3 {
		t.Name = parts[1] + "." + parts[2]
	}
	return t
}

// fitKeys shrinks primary key columns so the whole key fits the index limit.
func fitKeys(t storage.TableSpec) storage.TableSpec {
	if len(t.PrimaryKey) == 0 {
		return t
	}
	limit := maxKeyBytes / bytesPerChar / len(t.PrimaryKey)
	pk := make(map[string]bool, len(t.PrimaryKey))
	for _, k := range t.PrimaryKey {
		pk[k] = true
	}

	cols := make([]storage.ColumnSpec, len(t.Columns))
	copy(cols, t.Columns)
	for i, c := range cols {
		if pk[c.Name] && (c.Size == 0 || c.Size > limit) {
			cols[i].Size = limit
		}
	}
	t.Columns = cols
	return t
}
