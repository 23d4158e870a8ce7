// Package config loads the export configuration.
//
// Values are layered: built-in defaults, then the YAML (or JSON) file, then
// GLOSSARY_EXPORT_* environment variables, optionally seeded from a .env file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. GLOSSARY_EXPORT_CATALOG_TOKEN.
const EnvPrefix = "GLOSSARY_EXPORT"

// Defaults.
const (
	DefaultServer          = "http://localhost:8080"
	DefaultTableName       = "datahub_glossary_export"
	DefaultUsageTableName  = "datahub_glossary_term_usage"
	DefaultBatchSize       = 1000
	DefaultInterval        = 24 * time.Hour
	DefaultCatalogTimeout  = 60 * time.Second
	DefaultMetricsFlush    = 60 * time.Second
	DefaultMetricsBackend  = "none"
	DefaultConnectionKind  = "snowflake"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultMetricsJobName  = "glossary-export"
	DefaultUsageEntityType = "DASHBOARD"
)

// Config is the full export configuration.
type Config struct {
	Catalog     Catalog     `yaml:"catalog" envconfig:"CATALOG"`
	Connection  Connection  `yaml:"connection" envconfig:"CONNECTION"`
	Destination Destination `yaml:"destination" envconfig:"DESTINATION"`

	// ExportOnStartup runs one export as soon as the scheduler starts.
	ExportOnStartup bool `yaml:"export_on_startup" envconfig:"EXPORT_ON_STARTUP"`
	// BatchSize is the page size of glossary term and node searches.
	BatchSize int `yaml:"batch_size" envconfig:"BATCH_SIZE"`
	// EntityTypes are the consuming entity types searched for term usage.
	EntityTypes []string `yaml:"entity_types" envconfig:"ENTITY_TYPES"`

	Schedule Schedule `yaml:"schedule" envconfig:"SCHEDULE"`
	Metrics  Metrics  `yaml:"metrics" envconfig:"METRICS"`
	Log      Log      `yaml:"log" envconfig:"LOG"`
}

// Catalog points at the metadata catalog's GraphQL API.
type Catalog struct {
	Server            string        `yaml:"server" envconfig:"SERVER"`
	Token             string        `yaml:"token" envconfig:"TOKEN"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
}

// Connection selects the warehouse backend. DSN may reference environment
// variables as ${VAR}.
type Connection struct {
	Kind string `yaml:"kind" envconfig:"KIND"`
	DSN  string `yaml:"dsn" envconfig:"DSN"`
}

// Destination names the two target tables.
type Destination struct {
	Database       string `yaml:"database" envconfig:"DATABASE"`
	Schema         string `yaml:"schema" envconfig:"SCHEMA"`
	TableName      string `yaml:"table_name" envconfig:"TABLE_NAME"`
	UsageTableName string `yaml:"usage_table_name" envconfig:"USAGE_TABLE_NAME"`
}

// Schedule controls the serve command.
type Schedule struct {
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL"`
	// StatusAddr is the listen address of the status endpoint, e.g. ":8081".
	// Empty disables it.
	StatusAddr string `yaml:"status_addr" envconfig:"STATUS_ADDR"`
}

// Metrics selects the metrics backend ("none" or "datadog").
type Metrics struct {
	Backend    string        `yaml:"backend" envconfig:"BACKEND"`
	JobName    string        `yaml:"job_name" envconfig:"JOB_NAME"`
	Tags       []string      `yaml:"tags" envconfig:"TAGS"`
	FlushEvery time.Duration `yaml:"flush_every" envconfig:"FLUSH_EVERY"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Catalog: Catalog{
			Server:  DefaultServer,
			Timeout: DefaultCatalogTimeout,
		},
		Connection: Connection{Kind: DefaultConnectionKind},
		Destination: Destination{
			TableName:      DefaultTableName,
			UsageTableName: DefaultUsageTableName,
		},
		ExportOnStartup: true,
		BatchSize:       DefaultBatchSize,
		EntityTypes:     []string{DefaultUsageEntityType},
		Schedule:        Schedule{Interval: DefaultInterval},
		Metrics: Metrics{
			Backend:    DefaultMetricsBackend,
			JobName:    DefaultMetricsJobName,
			FlushEvery: DefaultMetricsFlush,
		},
		Log: Log{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// A missing file is not an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the file at path (optional),
// the .env file at envPath (optional) and the environment.
func Load(path, envPath string) (Config, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode reads YAML (JSON is accepted as a subset) over the values already in
// cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides cfg from GLOSSARY_EXPORT_* variables and expands
// ${VAR} references in the DSN and token.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	cfg.Connection.DSN = os.ExpandEnv(cfg.Connection.DSN)
	cfg.Catalog.Token = os.ExpandEnv(cfg.Catalog.Token)
	return nil
}

// GlossaryTable returns the qualified glossary table name.
func (d Destination) GlossaryTable() string {
	return qualify(d.Database, d.Schema, d.TableName)
}

// UsageTable returns the qualified usage table name.
func (d Destination) UsageTable() string {
	return qualify(d.Database, d.Schema, d.UsageTableName)
}

func qualify(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}
