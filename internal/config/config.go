// Package config loads application configuration from built-in defaults, an
// optional YAML file and CURSORSWITCH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigFile        = "CURSORSWITCH_CONFIG"
	EnvStateDB           = "CURSORSWITCH_STATE_DB"
	EnvStorageJSON       = "CURSORSWITCH_STORAGE_JSON"
	EnvSessionDir        = "CURSORSWITCH_SESSION_DIR"
	EnvAccountsDir       = "CURSORSWITCH_ACCOUNTS_DIR"
	EnvJournalDB         = "CURSORSWITCH_JOURNAL_DB"
	EnvProfileURL        = "CURSORSWITCH_PROFILE_URL"
	EnvUsageURL          = "CURSORSWITCH_USAGE_URL"
	EnvHTTPTimeout       = "CURSORSWITCH_HTTP_TIMEOUT"
	EnvRequestsPerSecond = "CURSORSWITCH_REQUESTS_PER_SECOND"
	EnvWorkers           = "CURSORSWITCH_WORKERS"
	EnvRefreshInterval   = "CURSORSWITCH_REFRESH_INTERVAL"
	EnvListenAddr        = "CURSORSWITCH_LISTEN_ADDR"
	EnvLogLevel          = "CURSORSWITCH_LOG_LEVEL"
	EnvLogFormat         = "CURSORSWITCH_LOG_FORMAT"
)

// Defaults for the non-path settings.
const (
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultWorkers           = 4
	DefaultListenAddr        = "127.0.0.1:8731"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"

	minWorkers = 2
)

// Config holds the application configuration. Empty ProfileURL and UsageURL
// select the client's built-in endpoints. A zero RefreshInterval disables
// scheduled refreshes in serve mode.
type Config struct {
	StateDBPath       string        `yaml:"state_db"`
	StorageJSONPath   string        `yaml:"storage_json"`
	SessionDir        string        `yaml:"session_dir"`
	AccountsDir       string        `yaml:"accounts_dir"`
	JournalDBPath     string        `yaml:"journal_db"`
	ProfileURL        string        `yaml:"profile_url"`
	UsageURL          string        `yaml:"usage_url"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Workers           int           `yaml:"workers"`
	RefreshInterval   time.Duration `yaml:"refresh_interval"`
	ListenAddr        string        `yaml:"listen_addr"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`

	// File is the config file that was read, or "" when none existed.
	File string `yaml:"-"`
}

// Load builds the configuration: defaults derived from the home directory,
// then the YAML file named by CURSORSWITCH_CONFIG (or the default location),
// then environment variables. Invalid values fail fast.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	paths := DefaultPaths(home, currentOS)

	cfg := &Config{
		StateDBPath:       paths.StateDB,
		StorageJSONPath:   paths.StorageJSON,
		SessionDir:        paths.SessionDir,
		AccountsDir:       paths.AccountsDir,
		JournalDBPath:     paths.JournalDB,
		HTTPTimeout:       DefaultHTTPTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Workers:           DefaultWorkers,
		ListenAddr:        DefaultListenAddr,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}

	file := paths.ConfigFile
	if v, ok := os.LookupEnv(EnvConfigFile); ok && v != "" {
		file = v
	}
	if err := cfg.loadFile(file); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. A missing file is not an error;
// keys absent from the file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvStateDB:     &c.StateDBPath,
		EnvStorageJSON: &c.StorageJSONPath,
		EnvSessionDir:  &c.SessionDir,
		EnvAccountsDir: &c.AccountsDir,
		EnvJournalDB:   &c.JournalDBPath,
		EnvProfileURL:  &c.ProfileURL,
		EnvUsageURL:    &c.UsageURL,
		EnvListenAddr:  &c.ListenAddr,
		EnvLogLevel:    &c.LogLevel,
		EnvLogFormat:   &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvHTTPTimeout); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s has invalid duration %q: %w", EnvHTTPTimeout, v, err)
		}
		c.HTTPTimeout = parsed
	}

	if v, ok := os.LookupEnv(EnvRefreshInterval); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s has invalid duration %q: %w", EnvRefreshInterval, v, err)
		}
		c.RefreshInterval = parsed
	}

	if v, ok := os.LookupEnv(EnvRequestsPerSecond); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s has invalid number %q: %w", EnvRequestsPerSecond, v, err)
		}
		c.RequestsPerSecond = parsed
	}

	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s has invalid integer %q: %w", EnvWorkers, v, err)
		}
		c.Workers = parsed
	}

	return nil
}

func (c *Config) validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative, got %s", c.RefreshInterval)
	}
	if c.Workers < minWorkers {
		return fmt.Errorf("workers must be at least %d, got %d", minWorkers, c.Workers)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
