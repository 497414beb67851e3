// Package config provides configuration types, defaults, and validation for portal.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/portal/internal/log"
)

// Config holds all configuration options for portal.
type Config struct {
	// APIBase is the backend origin serving /api/auth and /api/user routes.
	APIBase string `mapstructure:"api_base"`

	// DataAPIBase serves /account-data and /get-quote-pdf.
	// Default: APIBase + "/api"
	DataAPIBase string `mapstructure:"data_api_base"`

	SessionFile    string          `mapstructure:"session_file"`
	StorePath      string          `mapstructure:"store_path"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	Listing        ListingConfig   `mapstructure:"listing"`
	Tracing        TracingConfig   `mapstructure:"tracing"`
	Flags          map[string]bool `mapstructure:"flags"`
}

// ListingConfig tunes the orders/quotes history view.
type ListingConfig struct {
	// Debounce delays the fetch after a selection change so rapid changes coalesce.
	Debounce time.Duration `mapstructure:"debounce"`

	// DefaultPageSize is used when the server omits page_size.
	DefaultPageSize int `mapstructure:"default_page_size"`

	// DefaultTab is the tab opened on start: "orders" or "quotes".
	DefaultTab string `mapstructure:"default_tab"`

	// ClearLocalOnError drops locally deleted quote state when a fetch fails.
	ClearLocalOnError bool `mapstructure:"clear_local_on_error"`
}

// TracingConfig holds OpenTelemetry settings for backend requests.
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`

	FilePath     string  `mapstructure:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

const (
	TabOrders = "orders"
	TabQuotes = "quotes"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBase:        "http://127.0.0.1:5000",
		SessionFile:    DefaultSessionFile(),
		StorePath:      DefaultStorePath(),
		RequestTimeout: 30 * time.Second,
		Listing: ListingConfig{
			Debounce:          250 * time.Millisecond,
			DefaultPageSize:   5,
			DefaultTab:        TabQuotes,
			ClearLocalOnError: true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags: map[string]bool{},
	}
}

// DataBase returns the base URL for account data requests.
func (c Config) DataBase() string {
	if c.DataAPIBase != "" {
		return strings.TrimRight(c.DataAPIBase, "/")
	}
	return strings.TrimRight(c.APIBase, "/") + "/api"
}

// Validate checks the configuration for values the program cannot run with.
func Validate(c Config) error {
	if err := validateURL("api_base", c.APIBase); err != nil {
		return err
	}
	if c.DataAPIBase != "" {
		if err := validateURL("data_api_base", c.DataAPIBase); err != nil {
			return err
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if err := ValidateListing(c.Listing); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, raw)
	}
	return nil
}

// ValidateListing checks the listing section.
func ValidateListing(l ListingConfig) error {
	if l.Debounce < 0 {
		return fmt.Errorf("listing.debounce must not be negative, got %s", l.Debounce)
	}
	if l.DefaultPageSize < 0 {
		return fmt.Errorf("listing.default_page_size must not be negative, got %d", l.DefaultPageSize)
	}
	switch l.DefaultTab {
	case "", TabOrders, TabQuotes:
	default:
		return fmt.Errorf("listing.default_tab must be %q or %q, got %q", TabOrders, TabQuotes, l.DefaultTab)
	}
	return nil
}

// ValidateTracing checks the tracing section.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	switch tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "portal")
}

// DefaultSessionFile returns ~/.config/portal/session.json, or "" without a home dir.
func DefaultSessionFile() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "session.json")
	}
	return ""
}

// DefaultStorePath returns ~/.config/portal/portal.db, or "" without a home dir.
func DefaultStorePath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "portal.db")
	}
	return ""
}

// DefaultTracesFilePath returns ~/.config/portal/traces/traces.jsonl, or "" without a home dir.
func DefaultTracesFilePath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "traces", "traces.jsonl")
	}
	return ""
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# Portal configuration
# Values can also be set with PORTAL_* environment variables,
# e.g. PORTAL_API_BASE=https://portal.example.com

# Backend origin serving /api/auth and /api/user routes
api_base: "http://127.0.0.1:5000"

# Base URL for /account-data and /get-quote-pdf (default: api_base + "/api")
# data_api_base: "https://data.example.com/api"

# request_timeout: 30s

listing:
  # Wait this long after the last account/tab/page change before fetching
  debounce: 250ms
  # Page size assumed when the server does not report one
  default_page_size: 5
  # Tab opened on start: orders or quotes
  default_tab: quotes
  # Drop locally deleted quotes when a fetch fails
  clear_local_on_error: true

tracing:
  enabled: false
  exporter: file        # none, file, stdout, otlp
  # file_path: ~/.config/portal/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

flags:
  quote-pdf: true
  session-watch: true
`
}

// WriteDefaultConfig writes DefaultConfigTemplate to configPath, creating parent directories.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
