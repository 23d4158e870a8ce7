package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"glossaryexport/internal/logging"
	"glossaryexport/internal/storage"
)

// Kind is the connection kind this backend registers under.
const Kind = "postgres"

/*
Sink implements storage.Sink for Postgres on a pgx connection pool.

Table names may be qualified as schema.table or database.schema.table. The
database part is dropped (the DSN selects the database) and the schema is
created on demand.

ReplaceRows runs TRUNCATE and the chunked multi-row INSERTs in one pgx
transaction, so a failed load leaves the previous contents in place.
*/
type Sink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Sink = (*Sink)(nil)

// New creates a new Postgres-backed Sink and checks connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Sink{
		pool:   pool,
		logger: logging.OrDiscard(cfg.Logger).With("backend", Kind),
	}, nil
}

// Close closes the connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}

// EnsureTables creates missing schemas and tables. It is idempotent.
func (s *Sink) EnsureTables(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		schemaSQL, tableSQL, err := buildCreateSQL(t)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if schemaSQL != "" {
			if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
				return fmt.Errorf("postgres: create schema for %s: %w", t.Name, err)
			}
		}
		if _, err := s.pool.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("postgres: create table %s: %w", t.Name, err)
		}
		s.logger.Debug("table ensured", "table", t.Name)
	}
	return nil
}

// ReplaceRows truncates t and inserts rows inside one transaction.
func (s *Sink) ReplaceRows(ctx context.Context, t storage.TableSpec, rows [][]any) (int64, error) {
	if err := t.CheckRows(rows); err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}

	start := time.Now()
	var inserted int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, buildTruncateSQL(t)); err != nil {
			return fmt.Errorf("truncate %s: %w", t.Name, err)
		}

		chunks := storage.Chunks(rows, chunkRows(t))
		for i, chunk := range chunks {
			query, args := buildInsertSQL(t, chunk)
			cmd, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("insert into %s (chunk %d/%d): %w", t.Name, i+1, len(chunks), err)
			}
			inserted += cmd.RowsAffected()
			s.logger.Debug("inserted chunk",
				"table", t.Name,
				"chunk", i+1,
				"chunks", len(chunks),
				"rows", inserted,
			)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}

	s.logger.Info("table replaced",
		"table", t.Name,
		"rows", inserted,
		"duration", time.Since(start),
	)
	return inserted, nil
}
