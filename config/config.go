// Package config provides configuration management for the checker and the reference status service.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output formats for the checker report.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Log formats.
const (
	LogFormatAuto   = "auto"
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
	LogFormatText   = "text"
)

// Storage and cache backends accepted by the reference service.
const (
	StorageMemory     = "memory"
	StorageSQLite     = "sqlite"
	StoragePostgreSQL = "postgresql"
	StorageMongoDB    = "mongodb"

	CacheNone  = "none"
	CacheLocal = "local"
	CacheRedis = "redis"
)

// DefaultBodySizeLimit is the max request body size accepted by the reference service (1MB).
const DefaultBodySizeLimit int64 = 1 << 20

// Config holds the application configuration
type Config struct {
	Checker CheckerConfig `yaml:"checker"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CheckerConfig holds the expectations the contract checker runs with.
type CheckerConfig struct {
	// BaseURL is the API root, e.g. https://example.com/api. Paths are appended to it.
	BaseURL string `yaml:"base_url"`

	// Greeting is the exact "message" value expected from GET {base}/.
	Greeting string `yaml:"greeting"`

	// RequiredFields must be present on every status record.
	RequiredFields []string `yaml:"required_fields"`

	// ClientName is sent by the create check.
	ClientName string `yaml:"client_name"`

	// PersistenceClientName is sent by the persistence round-trip.
	PersistenceClientName string `yaml:"persistence_client_name"`

	// Origin is sent on the CORS preflight.
	Origin string `yaml:"origin"`

	// Checks restricts the run to the named checks. Empty means all.
	Checks []string `yaml:"checks"`

	// Format selects the report renderer ("text" or "json").
	Format string `yaml:"format"`

	// Schedule is an optional cron expression; empty runs once.
	Schedule string `yaml:"schedule"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`
}

// HTTPConfig holds outbound HTTP client configuration
type HTTPConfig struct {
	Timeout               time.Duration `yaml:"timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// ServerConfig holds HTTP server configuration for the reference service
type ServerConfig struct {
	Port             string   `yaml:"port"`
	BasePath         string   `yaml:"base_path"`
	Greeting         string   `yaml:"greeting"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	BodySizeLimit    int64    `yaml:"body_size_limit"`
	ListLimit        int      `yaml:"list_limit"`
	// APIKey, when set, is required as a bearer token on every route under BasePath.
	APIKey string `yaml:"api_key"`
}

// StorageConfig selects and configures the status record store.
type StorageConfig struct {
	Type       string           `yaml:"type"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// CacheConfig configures the status list cache.
type CacheConfig struct {
	Type  string        `yaml:"type"`
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Checker: CheckerConfig{
			BaseURL:               "http://localhost:8080/api",
			Greeting:              "Hello World",
			RequiredFields:        []string{"id", "client_name", "timestamp"},
			ClientName:            "test_client_backend_api",
			PersistenceClientName: "mongodb_test_client",
			Origin:                "https://example.com",
			Format:                FormatText,
		},
		HTTP: HTTPConfig{
			Timeout:               30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Format: LogFormatAuto,
			Level:  "info",
		},
		Server: ServerConfig{
			Port:             "8080",
			BasePath:         "/api",
			Greeting:         "Hello World",
			CORSAllowOrigins: []string{"*"},
			BodySizeLimit:    DefaultBodySizeLimit,
			ListLimit:        1000,
		},
		Storage: StorageConfig{
			Type:       StorageSQLite,
			SQLite:     SQLiteConfig{Path: "data/statusapi.db"},
			PostgreSQL: PostgreSQLConfig{MaxConns: 10},
			MongoDB:    MongoDBConfig{Database: "statusapi"},
		},
		Cache: CacheConfig{
			Type: CacheNone,
			TTL:  30 * time.Second,
			Redis: RedisConfig{
				Key: "statusapi:status_checks",
			},
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then a .env file in the working directory, then
// environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without the final Validate, for callers that overlay
// more settings (CLI flags) and validate the combined result themselves.
func LoadUnvalidated(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expandString(string(raw)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

// loadDotEnv loads variables from a .env file without overriding ones already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} with environment values.
// Unset variables without a default expand to the empty string.
func expandString(s string) string {
	if s == "" {
		return s
	}
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(parts[1]); ok && val != "" {
			return val
		}
		return parts[3]
	})
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.Checker.BaseURL, "STATUSCHECK_BASE_URL")
	setString(&cfg.Checker.Greeting, "STATUSCHECK_GREETING")
	setString(&cfg.Checker.Format, "STATUSCHECK_FORMAT")
	setString(&cfg.Checker.Schedule, "STATUSCHECK_SCHEDULE")
	setString(&cfg.Checker.Origin, "STATUSCHECK_ORIGIN")
	setList(&cfg.Checker.Checks, "STATUSCHECK_CHECKS")
	setString(&cfg.Checker.APIKey, "STATUSCHECK_API_KEY")

	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")

	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Greeting, "GREETING")
	setList(&cfg.Server.CORSAllowOrigins, "CORS_ALLOW_ORIGINS")
	setString(&cfg.Server.APIKey, "STATUSAPI_API_KEY")

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.SQLite.Path, "SQLITE_PATH")
	setString(&cfg.Storage.PostgreSQL.URL, "POSTGRES_URL")
	setString(&cfg.Storage.MongoDB.URL, "MONGODB_URL")
	setString(&cfg.Storage.MongoDB.Database, "MONGODB_DATABASE")

	setString(&cfg.Cache.Type, "CACHE_TYPE")
	setString(&cfg.Cache.Redis.URL, "REDIS_URL")

	if err := setDuration(&cfg.HTTP.Timeout, "HTTP_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.HTTP.ResponseHeaderTimeout, "HTTP_RESPONSE_HEADER_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = SplitList(v)
}

// setDuration accepts plain integers (seconds) or Go duration strings ("10s", "1m30s").
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

// SplitList splits a comma separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := ValidateBaseURL(c.Checker.BaseURL); err != nil {
		return err
	}
	switch c.Checker.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid checker format %q (valid: text, json)", c.Checker.Format)
	}
	if len(c.Checker.RequiredFields) == 0 {
		return fmt.Errorf("checker.required_fields must not be empty")
	}
	if c.HTTP.Timeout < 0 || c.HTTP.ResponseHeaderTimeout < 0 {
		return fmt.Errorf("http timeouts must not be negative")
	}
	switch c.Logging.Format {
	case LogFormatAuto, LogFormatPretty, LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid log format %q (valid: auto, pretty, json, text)", c.Logging.Format)
	}
	switch c.Storage.Type {
	case StorageMemory, StorageSQLite, StoragePostgreSQL, StorageMongoDB:
	default:
		return fmt.Errorf("unknown storage type: %s (valid: memory, sqlite, postgresql, mongodb)", c.Storage.Type)
	}
	switch c.Cache.Type {
	case CacheNone, CacheLocal, CacheRedis:
	default:
		return fmt.Errorf("unknown cache type: %s (valid: none, local, redis)", c.Cache.Type)
	}
	return nil
}

// ValidateBaseURL requires an absolute http(s) URL with a host.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("checker base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	return nil
}
