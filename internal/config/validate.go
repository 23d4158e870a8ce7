package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"glossaryexport/internal/logging"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is the dotted config key.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// connectionKinds mirrors the storage backends compiled into the binary.
var connectionKinds = map[string]bool{
	"postgres":  true,
	"snowflake": true,
	"mssql":     true,
	"mysql":     true,
	"sqlite":    true,
	"minio":     true,
}

// Validate checks cfg and returns every issue found.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Catalog.Server == "" {
		add(SeverityError, "catalog.server", "must not be empty")
	} else if u, err := url.Parse(cfg.Catalog.Server); err != nil || u.Scheme == "" || u.Host == "" {
		add(SeverityError, "catalog.server", "must be an absolute URL, got %q", cfg.Catalog.Server)
	}
	if cfg.Catalog.Token == "" {
		add(SeverityWarning, "catalog.token", "empty; requests are sent without authorization")
	}
	if cfg.Catalog.Timeout < 0 {
		add(SeverityError, "catalog.timeout", "must not be negative")
	}
	if cfg.Catalog.RequestsPerSecond < 0 {
		add(SeverityError, "catalog.requests_per_second", "must not be negative")
	}

	kind := strings.ToLower(cfg.Connection.Kind)
	switch {
	case kind == "":
		add(SeverityError, "connection.kind", "must not be empty")
	case !connectionKinds[kind]:
		add(SeverityError, "connection.kind", "unknown kind %q", cfg.Connection.Kind)
	}
	if cfg.Connection.DSN == "" {
		add(SeverityError, "connection.dsn", "must not be empty")
	}

	if cfg.Destination.TableName == "" {
		add(SeverityError, "destination.table_name", "must not be empty")
	}
	if cfg.Destination.UsageTableName == "" {
		add(SeverityError, "destination.usage_table_name", "must not be empty")
	}
	if cfg.Destination.TableName != "" && cfg.Destination.TableName == cfg.Destination.UsageTableName {
		add(SeverityError, "destination.usage_table_name", "must differ from table_name")
	}
	if kind == "sqlite" && cfg.Destination.Database != "" {
		add(SeverityWarning, "destination.database", "ignored by sqlite; the DSN selects the database file")
	}

	if cfg.BatchSize <= 0 {
		add(SeverityWarning, "batch_size", "%d is not positive; %d is used", cfg.BatchSize, DefaultBatchSize)
	}
	if len(cfg.EntityTypes) == 0 {
		add(SeverityWarning, "entity_types", "empty; no term usage will be exported")
	}
	for i, t := range cfg.EntityTypes {
		if t != strings.ToUpper(t) || strings.TrimSpace(t) == "" {
			add(SeverityWarning, fmt.Sprintf("entity_types[%d]", i), "%q is not an upper-case entity type name", t)
		}
	}

	if cfg.Schedule.Interval <= 0 {
		add(SeverityError, "schedule.interval", "must be positive")
	}
	if addr := cfg.Schedule.StatusAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			add(SeverityError, "schedule.status_addr", "invalid listen address %q: %v", addr, err)
		}
	}

	switch cfg.Metrics.Backend {
	case "", "none", "datadog":
	default:
		add(SeverityError, "metrics.backend", "unknown backend %q", cfg.Metrics.Backend)
	}

	if !logging.ValidLevel(cfg.Log.Level) {
		add(SeverityWarning, "log.level", "unknown level %q; info is used", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		add(SeverityWarning, "log.format", "unknown format %q; text is used", cfg.Log.Format)
	}

	return issues
}
