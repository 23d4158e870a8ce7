package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Config is the minimal configuration needed to open a Sink.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind   string
	DSN    string
	Logger *slog.Logger
}

// Sink is the warehouse side of an export.
//
// Each backend implements these semantics in its own idiomatic way
// (Postgres TRUNCATE + multi-row INSERT, Snowflake INSERT ... SELECT, an
// object store overwrite, etc).
type Sink interface {
	// Close releases backend resources. Call once when done.
	Close()

	// EnsureTables creates every table that does not exist yet. It never
	// alters or drops an existing table.
	EnsureTables(ctx context.Context, tables []TableSpec) error

	// ReplaceRows empties table and inserts rows, all inside one transaction
	// where the backend has them. Rows are aligned with table.InsertColumns().
	// On failure the transaction is rolled back and the error returned.
	ReplaceRows(ctx context.Context, table TableSpec, rows [][]any) (int64, error)
}

// Factory opens a Sink for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package; the kind
// string becomes the lookup key used by New.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Sink using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
