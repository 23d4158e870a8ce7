// Package all links every storage backend into the binary.
package all

import (
	_ "glossaryexport/internal/storage/minio"
	_ "glossaryexport/internal/storage/mssql"
	_ "glossaryexport/internal/storage/mysql"
	_ "glossaryexport/internal/storage/postgres"
	_ "glossaryexport/internal/storage/snowflake"
	_ "glossaryexport/internal/storage/sqlite"
)
