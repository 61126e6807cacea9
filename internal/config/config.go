// Package config defines process configuration and its loading.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and FFBRANK_* env vars on top.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Registry backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Period orderings.
const (
	OrderingChronological = "chronological"
	OrderingLexical       = "lexical"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// BaseDir is the root for the experts/ and rankings/ trees.
	BaseDir string `koanf:"base_dir"`
	// RegistryBackend selects where the master expert registry lives: csv, sqlite
	// or memory (nothing persisted, for dry runs).
	RegistryBackend string `koanf:"registry_backend"`
	// SQLitePath is used when RegistryBackend is sqlite. Relative paths resolve against BaseDir.
	SQLitePath string `koanf:"sqlite_path"`
	// PeriodOrdering decides how appearance labels compare: chronological or lexical.
	// Registries written with plain string ordering hold ranges such as
	// week10..week9 and fail to load as chronological; use lexical for those.
	PeriodOrdering string `koanf:"period_ordering"`

	// WorkerCount bounds concurrent fetches.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the in-memory task queue.
	QueueSize int `koanf:"queue_size"`
	// RequestsPerSecond and RequestBurst throttle outgoing requests.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	RequestBurst      int     `koanf:"request_burst"`
	// HTTPTimeoutMS is the per-request timeout.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`
	// FetchRetries is the number of transport-level retries per request.
	FetchRetries int `koanf:"fetch_retries"`
	// UserAgent is sent with every request.
	UserAgent string `koanf:"user_agent"`

	// SiteBaseURL hosts the expert listing pages.
	SiteBaseURL string `koanf:"site_base_url"`
	// APIURL is the consensus rankings endpoint.
	APIURL string `koanf:"api_url"`
	// APISourceID is the partner id sent with ranking requests.
	APISourceID int `koanf:"api_source_id"`

	// Addr configures the HTTP listen address for `ffbrank serve`.
	Addr string `koanf:"addr"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		BaseDir:           ".",
		RegistryBackend:   BackendCSV,
		SQLitePath:        "experts/registry.db",
		PeriodOrdering:    OrderingChronological,
		WorkerCount:       runtime.NumCPU() * 2,
		QueueSize:         1024,
		RequestsPerSecond: 4,
		RequestBurst:      2,
		HTTPTimeoutMS:     20_000,
		FetchRetries:      0,
		UserAgent:         "ffbrank/1.0",
		SiteBaseURL:       "https://www.fantasypros.com",
		APIURL:            "https://partners.fantasypros.com/api/v1/consensus-rankings.php",
		APISourceID:       1054,
		Addr:              ":9080",
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Validate checks invariants that defaults alone cannot guarantee.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseDir) == "":
		return fmt.Errorf("%w: base_dir must not be empty", ErrInvalidConfig)
	case c.RegistryBackend != BackendCSV && c.RegistryBackend != BackendSQLite && c.RegistryBackend != BackendMemory:
		return fmt.Errorf("%w: registry_backend must be %q, %q or %q, got %q", ErrInvalidConfig, BackendCSV, BackendSQLite, BackendMemory, c.RegistryBackend)
	case c.PeriodOrdering != OrderingChronological && c.PeriodOrdering != OrderingLexical:
		return fmt.Errorf("%w: period_ordering must be %q or %q, got %q", ErrInvalidConfig, OrderingChronological, OrderingLexical, c.PeriodOrdering)
	case c.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidConfig)
	case c.FetchRetries < 0:
		return fmt.Errorf("%w: fetch_retries must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.SiteBaseURL) == "" || strings.TrimSpace(c.APIURL) == "":
		return fmt.Errorf("%w: site_base_url and api_url must not be empty", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	return nil
}
