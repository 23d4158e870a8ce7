package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"glossaryexport/internal/storage"
	"glossaryexport/internal/storage/sqlsink"
)

// maxParams is the Postgres wire protocol limit on bind parameters.
const (
	maxParams = 65535
	maxRows   = 1000
)

var syntax = sqlsink.Syntax{
	Quote:       pgIdent,
	Type:        columnType,
	Now:         "CURRENT_TIMESTAMP",
	Placeholder: sqlsink.Dollar,
}

// pgIdent quotes one identifier part the way pgx does.
func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func columnType(c storage.ColumnSpec) string {
	switch c.Type {
	case storage.TypeKey, storage.TypeShort:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "TEXT"
	case storage.TypeText:
		return "TEXT"
	case storage.TypeJSON:
		return "JSONB"
	case storage.TypeTimestamp:
		return "TIMESTAMP"
	}
	return ""
}

// localName drops a leading database qualifier: Postgres cannot address
// another database from the same connection.
func localName(t storage.TableSpec) storage.TableSpec {
	if parts := storage.SplitName(t.Name); len(parts) == 3 {
		t.Name = parts[1] + "." + parts[2]
	}
	return t
}

// splitQualifiedName splits "schema.table". An unqualified name has no schema.
func splitQualifiedName(name string) (schema string, table string) {
	parts := storage.SplitName(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[len(parts)-2], parts[len(parts)-1]
	}
}

// buildCreateSQL builds the DDL for t: an optional CREATE SCHEMA and the
// CREATE TABLE IF NOT EXISTS.
func buildCreateSQL(t storage.TableSpec) (schemaSQL, tableSQL string, err error) {
	t = localName(t)
	if schema, _ := splitQualifiedName(t.Name); schema != "" {
		schemaSQL = fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgIdent(schema))
	}
	tableSQL, err = syntax.CreateIfNotExists(t)
	if err != nil {
		return "", "", err
	}
	return schemaSQL, tableSQL, nil
}

func buildTruncateSQL(t storage.TableSpec) string {
	return "TRUNCATE TABLE " + syntax.Table(localName(t).Name)
}

// buildInsertSQL constructs a single multi-row INSERT and its args.
//
// Constraints:
//   - every row must have one value per insert column.
func buildInsertSQL(t storage.TableSpec, rows [][]any) (string, []any) {
	return syntax.InsertValues(localName(t), rows)
}

func chunkRows(t storage.TableSpec) int {
	return storage.ChunkSize(len(t.InsertColumns()), maxParams, maxRows)
}
