// Package snowflake is the Snowflake backend, the warehouse the export was
// first written for.
package snowflake

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"glossaryexport/internal/storage"
	"glossaryexport/internal/storage/sqlsink"
)

// Kind is the connection kind this backend registers under.
const Kind = "snowflake"

// A long UNION ALL is compiled as one expression tree; a few hundred rows per
// statement keeps compilation fast.
const (
	maxParams = 16384
	maxRows   = 200
)

// applicationName is reported to Snowflake as the client application.
const applicationName = "glossary-export"

func init() {
	storage.Register(Kind, New)
}

// New opens a Snowflake connection. The DSN uses the gosnowflake format, e.g.
// user:password@account/DW/GOV?warehouse=COMPUTE_WH&role=LOADER.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("snowflake: %w", err)
	}
	s, err := sqlsink.Open(ctx, Dialect{}, sqlsink.Options{
		Driver: "snowflake",
		DSN:    dsn,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeDSN(dsn string) (string, error) {
	c, err := gosnowflake.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if c.Application == "" {
		c.Application = applicationName
	}
	return gosnowflake.DSN(c)
}

// Dialect renders Snowflake statements.
//
// JSON columns are VARIANT and are loaded with PARSE_JSON. Timestamps are
// TIMESTAMP_NTZ loaded from epoch milliseconds with TO_TIMESTAMP_NTZ(?, 3).
// Neither function is allowed in a VALUES list, so rows are inserted with
// INSERT ... SELECT ... UNION ALL SELECT ...
type Dialect struct{}

var syntax = sqlsink.Syntax{
	Quote:       snowflakeIdent,
	Type:        columnType,
	Now:         "CURRENT_TIMESTAMP()",
	Placeholder: sqlsink.Question,
}

func columnType(c storage.ColumnSpec) string {
	switch c.Type {
	case storage.TypeKey, storage.TypeShort:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "VARCHAR"
	case storage.TypeText:
		return "VARCHAR"
	case storage.TypeJSON:
		return "VARIANT"
	case storage.TypeTimestamp:
		return "TIMESTAMP_NTZ"
	}
	return ""
}

func (Dialect) Name() string { return Kind }

func (Dialect) CreateTable(t storage.TableSpec) ([]string, error) {
	stmt, err := syntax.CreateIfNotExists(t)
	if err != nil {
		return nil, err
	}
	return []string{stmt}, nil
}

func (Dialect) Truncate(t storage.TableSpec) string {
	return "TRUNCATE TABLE " + syntax.Table(t.Name)
}

// Insert renders INSERT INTO t (cols) SELECT ... UNION ALL SELECT ...
func (Dialect) Insert(t storage.TableSpec, rows [][]any) (string, []any) {
	cols := t.InsertColumnSpecs()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(syntax.Table(t.Name))
	b.WriteString(" (")
	b.WriteString(syntax.List(t.InsertColumns()))
	b.WriteString(") ")

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(" UNION ALL ")
		}
		b.WriteString("SELECT ")
		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(bindExpr(c))
			args = append(args, bindValue(c, row[j]))
		}
	}
	return b.String(), args
}

func (Dialect) ChunkRows(t storage.TableSpec) int {
	return storage.ChunkSize(len(t.InsertColumns()), maxParams, maxRows)
}

func bindExpr(c storage.ColumnSpec) string {
	switch c.Type {
	case storage.TypeJSON:
		return "PARSE_JSON(?)"
	case storage.TypeTimestamp:
		return "TO_TIMESTAMP_NTZ(?, 3)"
	default:
		return "?"
	}
}

func bindValue(c storage.ColumnSpec, v any) any {
	if ts, ok := v.(time.Time); ok && c.Type == storage.TypeTimestamp {
		return ts.UnixMilli()
	}
	return v
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// snowflakeIdent leaves simple identifiers unquoted so Snowflake resolves
// them case-insensitively (DATAHUB_GLOSSARY_EXPORT and datahub_glossary_export
// are the same table). Anything else is double-quoted.
func snowflakeIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return sqlsink.DoubleQuote(name)
}
