// Package mssql is the Microsoft SQL Server backend.
package mssql

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"glossaryexport/internal/storage"
	"glossaryexport/internal/storage/sqlsink"
)

// Kind is the connection kind this backend registers under.
const Kind = "mssql"

// SQL Server accepts at most 2100 parameters per statement and 1000 rows in
// a VALUES list.
const (
	maxParams = 2000
	maxRows   = 1000
)

func init() {
	storage.Register(Kind, New)
}

// New opens a SQL Server connection through the "sqlserver" driver.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	s, err := sqlsink.Open(ctx, Dialect{}, sqlsink.Options{
		Driver: "sqlserver",
		DSN:    cfg.DSN,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Dialect renders SQL Server statements.
//
// Strings are NVARCHAR so glossary text keeps its full Unicode range. JSON is
// stored as NVARCHAR(MAX); SQL Server has no native JSON column type.
type Dialect struct{}

var syntax = sqlsink.Syntax{
	Quote:       mssqlIdent,
	Type:        columnType,
	Now:         "SYSUTCDATETIME()",
	Placeholder: sqlsink.AtP,
}

func columnType(c storage.ColumnSpec) string {
	switch c.Type {
	case storage.TypeKey, storage.TypeShort:
		if c.Size > 0 && c.Size <= 4000 {
			return fmt.Sprintf("NVARCHAR(%d)", c.Size)
		}
		return "NVARCHAR(MAX)"
	case storage.TypeText, storage.TypeJSON:
		return "NVARCHAR(MAX)"
	case storage.TypeTimestamp:
		return "DATETIME2(3)"
	}
	return ""
}

func (Dialect) Name() string { return Kind }

// CreateTable returns an optional schema guard and an OBJECT_ID-guarded
// CREATE TABLE, so the statements are idempotent without IF NOT EXISTS.
func (Dialect) CreateTable(t storage.TableSpec) ([]string, error) {
	defs, err := syntax.ColumnDefs(t)
	if err != nil {
		return nil, err
	}
	var stmts []string
	if parts := storage.SplitName(t.Name); len(parts) == 2 {
		stmts = append(stmts, wrapCreateSchemaIfMissing(parts[0]))
	}
	return append(stmts, wrapCreateIfMissing(t.Name, defs)), nil
}

func (Dialect) Truncate(t storage.TableSpec) string {
	return "TRUNCATE TABLE " + syntax.Table(t.Name)
}

func (Dialect) Insert(t storage.TableSpec, rows [][]any) (string, []any) {
	return syntax.InsertValues(t, rows)
}

func (Dialect) ChunkRows(t storage.TableSpec) int {
	return storage.ChunkSize(len(t.InsertColumns()), maxParams, maxRows)
}

// wrapCreateIfMissing wraps a CREATE TABLE statement in an OBJECT_ID guard.
func wrapCreateIfMissing(tableName string, innerDefs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		sqlString(tableName),
		syntax.Table(tableName),
		innerDefs,
	)
}

// wrapCreateSchemaIfMissing creates schema when SCHEMA_ID does not know it.
// CREATE SCHEMA must be the only statement in its batch, hence EXEC.
func wrapCreateSchemaIfMissing(schema string) string {
	create := "CREATE SCHEMA " + mssqlIdent(schema)
	return fmt.Sprintf(
		"IF SCHEMA_ID(N'%s') IS NULL EXEC(N'%s');",
		sqlString(schema),
		sqlString(create),
	)
}

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return sqlsink.Bracket(name)
}

// sqlString escapes s for use inside an N'...' literal.
func sqlString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
