package postgres

import "glossaryexport/internal/storage"

func init() {
	// registers the pgx-backed sink factory
	storage.Register(Kind, New)
}
