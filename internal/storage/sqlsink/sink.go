// Package sqlsink is the database/sql engine shared by the SQL backends.
//
// A backend supplies a Dialect (identifier quoting, native column types,
// truncate and insert statements, chunk size) and registers a factory that
// calls Open. The engine owns the transaction:
//
//	BEGIN
//	  <truncate>
//	  INSERT ... (chunk 1)
//	  INSERT ... (chunk n)
//	COMMIT
//
// Any failure rolls the transaction back, so readers see either the previous
// table contents or the new ones.
package sqlsink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"glossaryexport/internal/logging"
	"glossaryexport/internal/storage"
)

// Dialect renders the statements one database needs.
type Dialect interface {
	// Name prefixes errors, e.g. "mssql".
	Name() string
	// CreateTable returns the statements that create t when it is missing.
	CreateTable(t storage.TableSpec) ([]string, error)
	// Truncate returns the statement that empties t.
	Truncate(t storage.TableSpec) string
	// Insert renders one multi-row INSERT for rows and its bind arguments.
	Insert(t storage.TableSpec, rows [][]any) (string, []any)
	// ChunkRows is the largest number of rows passed to one Insert call.
	ChunkRows(t storage.TableSpec) int
}

// Options configures Open.
type Options struct {
	// Driver is the database/sql driver name, e.g. "sqlite".
	Driver string
	DSN    string
	// MaxOpenConns bounds the pool. Zero keeps a small default.
	MaxOpenConns int
	Logger       *slog.Logger
}

const defaultMaxOpenConns = 4

// Sink implements storage.Sink on top of database/sql.
type Sink struct {
	db      dbConn
	dialect Dialect
	logger  *slog.Logger
}

var _ storage.Sink = (*Sink)(nil)

// Open opens and pings the database described by opts.
func Open(ctx context.Context, d Dialect, opts Options) (*Sink, error) {
	raw, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name(), err)
	}

	n := opts.MaxOpenConns
	if n <= 0 {
		n = defaultMaxOpenConns
	}
	raw.SetMaxOpenConns(n)
	raw.SetMaxIdleConns(n)

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name(), err)
	}
	return newSink(&sqlDB{db: raw}, d, opts.Logger), nil
}

func newSink(db dbConn, d Dialect, logger *slog.Logger) *Sink {
	return &Sink{
		db:      db,
		dialect: d,
		logger:  logging.OrDiscard(logger).With("backend", d.Name()),
	}
}

// Close releases database resources held by this sink.
func (s *Sink) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

// EnsureTables creates every table that is missing. Existing tables are
// left untouched.
func (s *Sink) EnsureTables(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.dialect.Name(), err)
		}
		stmts, err := s.dialect.CreateTable(t)
		if err != nil {
			return fmt.Errorf("%s: create table %s: %w", s.dialect.Name(), t.Name, err)
		}
		for _, stmt := range stmts {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: create table %s: %w", s.dialect.Name(), t.Name, err)
			}
		}
		s.logger.Debug("table ensured", "table", t.Name)
	}
	return nil
}

// ReplaceRows empties t and inserts rows in one transaction.
func (s *Sink) ReplaceRows(ctx context.Context, t storage.TableSpec, rows [][]any) (_ int64, err error) {
	name := s.dialect.Name()
	if err := t.CheckRows(rows); err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", name, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("rollback failed", "table", t.Name, "err", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, s.dialect.Truncate(t)); err != nil {
		return 0, fmt.Errorf("%s: truncate %s: %w", name, t.Name, err)
	}

	var inserted int64
	chunks := storage.Chunks(rows, s.dialect.ChunkRows(t))
	for i, chunk := range chunks {
		query, args := s.dialect.Insert(t, chunk)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("%s: insert into %s (chunk %d/%d): %w", name, t.Name, i+1, len(chunks), err)
		}
		inserted += int64(len(chunk))
		s.logger.Debug("inserted chunk",
			"table", t.Name,
			"chunk", i+1,
			"chunks", len(chunks),
			"rows", inserted,
		)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit %s: %w", name, t.Name, err)
	}

	s.logger.Info("table replaced",
		"table", t.Name,
		"rows", inserted,
		"duration", time.Since(start),
	)
	return inserted, nil
}

// ---- database/sql seam types ----

// dbConn is the part of *sql.DB the engine uses.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error)
	Close() error
}

// txConn is the part of *sql.Tx the engine uses.
type txConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

type sqlDB struct {
	db *sql.DB
}

func (s *sqlDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *sqlDB) Close() error { return s.db.Close() }

var _ dbConn = (*sqlDB)(nil)
