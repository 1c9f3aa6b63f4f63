// ABOUTME: Configuration loading and parsing for folder-icons
// ABOUTME: Supports YAML files with environment variable expansion, size and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Defaults applied after unmarshaling when a field is left empty.
const (
	DefaultHTTPAddr        = "localhost:8080"
	DefaultMaxUploadSize   = "1MiB"
	DefaultShutdownTimeout = "10s"
	DefaultTokenTTL        = "720h"
	DefaultUploadRate      = 5.0
	DefaultUploadBurst     = 10
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Config represents the complete folder-icons configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Icons    IconsConfig    `yaml:"icons"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IconsConfig holds uploaded asset storage configuration
type IconsConfig struct {
	// Dir is the flat directory holding <identity>.png files.
	Dir string `yaml:"dir"`

	MaxUploadSize int64 `yaml:"-"`

	// Raw size string such as "1MiB" or "512 kB"
	MaxUploadSizeRaw string `yaml:"max_upload_size"`

	// SymbolsFile is an optional TOML catalog of symbol icon names.
	SymbolsFile string `yaml:"symbols_file"`
}

// UploadsConfig holds upload rate limiting configuration
type UploadsConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTSecret enables token authentication. Empty disables it.
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultPath returns the config file location: $FOLDER_ICONS_CONFIG if set,
// otherwise folder-icons/config.yaml under the user config directory.
func DefaultPath() string {
	if p := os.Getenv("FOLDER_ICONS_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "folder-icons", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "folder-icons", "config.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration and size strings are parsed and defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from raw YAML.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := parseRawValues(&cfg); err != nil {
		return nil, fmt.Errorf("parsing values: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// envVarPattern matches ${VAR_NAME}.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Server.ShutdownTimeoutRaw == "" {
		cfg.Server.ShutdownTimeoutRaw = DefaultShutdownTimeout
	}
	if cfg.Icons.MaxUploadSizeRaw == "" {
		cfg.Icons.MaxUploadSizeRaw = DefaultMaxUploadSize
	}
	if cfg.Uploads.RatePerSecond == 0 {
		cfg.Uploads.RatePerSecond = DefaultUploadRate
	}
	if cfg.Uploads.Burst == 0 {
		cfg.Uploads.Burst = DefaultUploadBurst
	}
	if cfg.Auth.TokenTTLRaw == "" {
		cfg.Auth.TokenTTLRaw = DefaultTokenTTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Icons.Dir == "" {
		return fmt.Errorf("icons.dir is required")
	}

	if c.Icons.MaxUploadSize <= 0 {
		return fmt.Errorf("icons.max_upload_size must be positive")
	}

	if c.Uploads.RatePerSecond < 0 || c.Uploads.Burst < 0 {
		return fmt.Errorf("uploads.rate_per_second and uploads.burst must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseRawValues converts the raw size and duration strings into typed values
func parseRawValues(cfg *Config) error {
	size, err := humanize.ParseBytes(cfg.Icons.MaxUploadSizeRaw)
	if err != nil {
		return fmt.Errorf("parsing max_upload_size %q: %w", cfg.Icons.MaxUploadSizeRaw, err)
	}
	cfg.Icons.MaxUploadSize = int64(size)

	cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
	}

	cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
	}

	return nil
}

// AuthEnabled reports whether a JWT secret is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}
