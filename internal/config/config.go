// Package config provides configuration data structures for sourcecheck.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config represents the complete sourcecheck configuration loaded from
// .sourcecheck/config.yaml.
type Config struct {
	API      APIConfig      `yaml:"api"      json:"api"      mapstructure:"api"`
	Sources  SourcesConfig  `yaml:"sources"  json:"sources"  mapstructure:"sources"`
	Explorer ExplorerConfig `yaml:"explorer" json:"explorer" mapstructure:"explorer"`
	Store    StoreConfig    `yaml:"store"    json:"store"    mapstructure:"store"`
	Logging  LoggingConfig  `yaml:"logging"  json:"logging"  mapstructure:"logging"`
}

// APIConfig configures access to the CEIC REST API.
type APIConfig struct {
	// BaseURL is the API root (default: https://api.ceicdata.com/v2).
	BaseURL string `yaml:"base_url" json:"base_url" mapstructure:"base_url"`
	// Timeout bounds each HTTP request (default: 30s).
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	// PageSize is the number of series requested per search page (default: 100).
	PageSize int `yaml:"page_size" json:"page_size" mapstructure:"page_size"`
	// Concurrency is the number of pages fetched in parallel (default: 4).
	Concurrency int `yaml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	// MaxRetries is how many times a transient failure is retried (default: 3).
	MaxRetries int `yaml:"max_retries" json:"max_retries" mapstructure:"max_retries"`
	// Username is the CEIC Access ID. Usually supplied through the environment.
	Username string `yaml:"username,omitempty" json:"username,omitempty" mapstructure:"username"`
	// Password is the CEIC Secret Key. Usually supplied through the environment.
	Password string `yaml:"password,omitempty" json:"-" mapstructure:"password"`
}

// SourcesConfig configures the local sources catalog.
type SourcesConfig struct {
	// File is the path to sources.json (default: sources.json).
	File string `yaml:"file" json:"file" mapstructure:"file"`
	// Watch reloads the catalog when the file changes.
	Watch bool `yaml:"watch" json:"watch" mapstructure:"watch"`
}

// ExplorerConfig configures explorer behavior.
type ExplorerConfig struct {
	// WarnThreshold is the series count above which a full load asks for
	// confirmation (default: 500).
	WarnThreshold int `yaml:"warn_threshold" json:"warn_threshold" mapstructure:"warn_threshold"`
	// GridPageSize is the number of rows per page in the series grid (default: 50).
	GridPageSize int `yaml:"grid_page_size" json:"grid_page_size" mapstructure:"grid_page_size"`
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	// Enabled turns snapshot persistence on (default: true).
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// Path is the SQLite database file (default: .sourcecheck/snapshots.db).
	Path string `yaml:"path" json:"path" mapstructure:"path"`
}

// LogLevel names a logging threshold.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level    LogLevel      `yaml:"level" json:"level" mapstructure:"level"`
	Dir      string        `yaml:"dir" json:"dir" mapstructure:"dir"`
	MaxFiles int           `yaml:"max_files" json:"max_files" mapstructure:"max_files"`
	MaxAge   time.Duration `yaml:"max_age" json:"max_age" mapstructure:"max_age"`
	JSON     bool          `yaml:"json" json:"json" mapstructure:"json"`
}

// Default values.
const (
	DefaultBaseURL       = "https://api.ceicdata.com/v2"
	DefaultTimeout       = 30 * time.Second
	DefaultPageSize      = 100
	DefaultConcurrency   = 4
	DefaultMaxRetries    = 3
	DefaultSourcesFile   = "sources.json"
	DefaultWarnThreshold = 500
	DefaultGridPageSize  = 50
	DefaultStorePath     = ".sourcecheck/snapshots.db"
	DefaultLogDir        = ".sourcecheck/logs"
	DefaultMaxLogFiles   = 10
	DefaultMaxLogAge     = 7 * 24 * time.Hour

	// MaxPageSize is the largest page the CEIC search endpoint accepts.
	MaxPageSize = 1000
)

// NewConfig returns a new Config with default values applied.
func NewConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			Timeout:     DefaultTimeout,
			PageSize:    DefaultPageSize,
			Concurrency: DefaultConcurrency,
			MaxRetries:  DefaultMaxRetries,
		},
		Sources: SourcesConfig{
			File: DefaultSourcesFile,
		},
		Explorer: ExplorerConfig{
			WarnThreshold: DefaultWarnThreshold,
			GridPageSize:  DefaultGridPageSize,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    DefaultStorePath,
		},
		Logging: LoggingConfig{
			Level:    LogLevelInfo,
			Dir:      DefaultLogDir,
			MaxFiles: DefaultMaxLogFiles,
			MaxAge:   DefaultMaxLogAge,
		},
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
// Booleans are not touched; the loader starts from NewConfig so an omitted
// boolean keeps its default.
func (c *Config) ApplyDefaults() {
	defaults := NewConfig()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = defaults.API.PageSize
	}
	if c.API.Concurrency == 0 {
		c.API.Concurrency = defaults.API.Concurrency
	}

	if c.Sources.File == "" {
		c.Sources.File = defaults.Sources.File
	}

	if c.Explorer.GridPageSize == 0 {
		c.Explorer.GridPageSize = defaults.Explorer.GridPageSize
	}

	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = defaults.Logging.Dir
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := "multiple validation errors:"
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.API.BaseURL == "" {
		errs = append(errs, &ValidationError{Field: "api.base_url", Message: "must not be empty"})
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, &ValidationError{Field: "api.base_url", Message: "must be an absolute http(s) URL"})
	}
	if c.API.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "api.timeout", Message: "must be non-negative"})
	}
	if c.API.PageSize <= 0 || c.API.PageSize > MaxPageSize {
		errs = append(errs, &ValidationError{
			Field:   "api.page_size",
			Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize),
		})
	}
	if c.API.Concurrency <= 0 {
		errs = append(errs, &ValidationError{Field: "api.concurrency", Message: "must be positive"})
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, &ValidationError{Field: "api.max_retries", Message: "must be non-negative"})
	}

	if c.Sources.File == "" {
		errs = append(errs, &ValidationError{Field: "sources.file", Message: "must not be empty"})
	}

	if c.Explorer.WarnThreshold < 0 {
		errs = append(errs, &ValidationError{Field: "explorer.warn_threshold", Message: "must be non-negative"})
	}
	if c.Explorer.GridPageSize <= 0 {
		errs = append(errs, &ValidationError{Field: "explorer.grid_page_size", Message: "must be positive"})
	}

	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, &ValidationError{Field: "store.path", Message: "is required when the store is enabled"})
	}

	if c.Logging.Level != "" {
		switch c.Logging.Level {
		case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
			// valid
		default:
			errs = append(errs, &ValidationError{
				Field:   "logging.level",
				Message: "must be 'debug', 'info', 'warn', or 'error'",
			})
		}
	}
	if c.Logging.MaxFiles < 0 {
		errs = append(errs, &ValidationError{Field: "logging.max_files", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
