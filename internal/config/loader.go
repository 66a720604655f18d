package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config file relative to the working directory.
	DefaultConfigPath = ".sourcecheck/config.yaml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "SOURCECHECK"
)

// Loader handles loading configuration from files and environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// LoadConfig loads configuration from the specified path, applies defaults,
// merges environment variables, and validates the result.
// If path is empty, it uses DefaultConfigPath.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{
			Path:    path,
			Message: "config file not found",
			Err:     err,
		}
	}

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to read config file",
			Err:     err,
		}
	}

	cfg := NewConfig()
	if err := l.v.Unmarshal(cfg, viperDecodeHook); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "failed to parse config file",
			Err:     err,
		}
	}

	return l.finish(path, cfg)
}

// LoadOrDefault behaves like LoadConfig but falls back to defaults plus
// environment overrides when the file does not exist.
func (l *Loader) LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l.finish(path, NewConfig())
	}
	return l.LoadConfig(path)
}

func (l *Loader) finish(path string, cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{
			Path:    path,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// API settings
	if v := os.Getenv(EnvPrefix + "_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv(EnvPrefix + "_API_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.PageSize = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_API_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Concurrency = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_API_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_API_USERNAME"); v != "" {
		cfg.API.Username = v
	}
	if v := os.Getenv(EnvPrefix + "_API_PASSWORD"); v != "" {
		cfg.API.Password = v
	}

	// Sources settings
	if v := os.Getenv(EnvPrefix + "_SOURCES_FILE"); v != "" {
		cfg.Sources.File = v
	}
	if v := os.Getenv(EnvPrefix + "_SOURCES_WATCH"); v != "" {
		cfg.Sources.Watch = parseBool(v)
	}

	// Explorer settings
	if v := os.Getenv(EnvPrefix + "_EXPLORER_WARN_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Explorer.WarnThreshold = n
		}
	}

	// Store settings
	if v := os.Getenv(EnvPrefix + "_STORE_ENABLED"); v != "" {
		cfg.Store.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvPrefix + "_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}

	// Logging settings
	if v := os.Getenv(EnvPrefix + "_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = LogLevel(strings.ToLower(v))
	}
	if v := os.Getenv(EnvPrefix + "_LOGGING_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
}

// parseBool parses a string as a boolean value.
// Returns true for "true", "1", "yes" (case-insensitive).
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// viperDecodeHook composes the standard mapstructure hooks with our custom ones.
func viperDecodeHook(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToCustomTypeHookFunc(),
	)
}

func stringToCustomTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		if to == reflect.TypeOf(LogLevel("")) {
			return LogLevel(strings.ToLower(data.(string))), nil
		}
		return data, nil
	}
}

// Save writes cfg as YAML to path, creating parent directories.
// Credentials are never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath
	}

	out := *cfg
	out.API.Username = ""
	out.API.Password = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return &LoadError{Path: path, Message: "failed to encode config", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &LoadError{Path: path, Message: "failed to create config directory", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &LoadError{Path: path, Message: "failed to write config file", Err: err}
	}
	return nil
}

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load creates a new Loader and loads configuration from path.
func Load(path string) (*Config, error) {
	return NewLoader().LoadConfig(path)
}

// LoadOrDefault creates a new Loader and loads configuration, using defaults
// when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	return NewLoader().LoadOrDefault(path)
}
