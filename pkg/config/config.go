// Package config loads Hermes's configuration document: mount points, the
// scope filter's inclusion/exclusion lists, the buffer pool's shared-memory
// name, page size, and the default adapter mode.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (HERMES_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hermesio/hermes/internal/bytesize"
	"github.com/hermesio/hermes/pkg/scope"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is Hermes's static configuration document.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// MountPoints lists the paths the daemon is configured for; at least one
	// is required. The scope filter does not consult this list: tracking is
	// decided by the inclusion/exclusion prefixes and the system-path list.
	MountPoints []string `mapstructure:"mount_points" validate:"required,min=1" yaml:"mount_points"`

	// PathInclusions are prefixes that are always tracked, overriding
	// system-path and exclusion checks.
	PathInclusions []string `mapstructure:"path_inclusions" yaml:"path_inclusions"`

	// PathExclusions are prefixes that are never tracked.
	PathExclusions []string `mapstructure:"path_exclusions" yaml:"path_exclusions"`

	// FlushExclusions are prefixes temporarily held out of the flush
	// pipeline while a gap read is in flight; normally populated only at
	// runtime, but an operator can seed entries here for paths known in
	// advance to need it.
	FlushExclusions []string `mapstructure:"flush_exclusions" yaml:"flush_exclusions"`

	// BufferPoolShmemName names the buffer pool's shared-memory segment. The
	// blob store is an in-process MemStore and does not use it, and the
	// scope filter does not exclude it from tracking.
	BufferPoolShmemName string `mapstructure:"buffer_pool_shmem_name" yaml:"buffer_pool_shmem_name"`

	// PageSize is the fixed page size pagemap.Map divides requests into.
	PageSize bytesize.ByteSize `mapstructure:"page_size" validate:"required,gt=0" yaml:"page_size"`

	// BufferPoolCapacity caps the blob store's total resident size; 0
	// means unbounded.
	BufferPoolCapacity bytesize.ByteSize `mapstructure:"buffer_pool_capacity" yaml:"buffer_pool_capacity"`

	// AdapterMode is the default adapter mode new sessions start in.
	// Valid values: default, bypass, scratch, workflow.
	AdapterMode string `mapstructure:"adapter_mode" validate:"omitempty,oneof=default bypass scratch workflow" yaml:"adapter_mode"`

	// WriteOnlyHint skips the speculative gap read on unaligned new-blob
	// writes, zero-filling the prefix instead.
	WriteOnlyHint bool `mapstructure:"write_only_hint" yaml:"write_only_hint"`

	// AsyncFlush selects the background drain flusher, notified on every
	// write, instead of destaging synchronously only on close/fsync.
	AsyncFlush bool `mapstructure:"async_flush" yaml:"async_flush"`

	// ShutdownTimeout is the maximum time to wait for a graceful
	// shutdown, draining any in-flight async flushes.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior, matching internal/logger's
// accepted level/format values.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file
	// path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// ParseAdapterMode resolves the configured adapter-mode string to its
// scope.AdapterMode value, defaulting to scope.ModeDefault when unset.
func (c *Config) ParseAdapterMode() scope.AdapterMode {
	switch strings.ToLower(c.AdapterMode) {
	case "bypass":
		return scope.ModeBypass
	case "scratch":
		return scope.ModeScratch
	case "workflow":
		return scope.ModeWorkflow
	default:
		return scope.ModeDefault
	}
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when no
// config file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  hermesd init\n\n"+
				"Or specify a custom config file:\n"+
				"  hermesd --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  hermesd init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path in YAML, respecting yaml struct tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("HERMES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks composes the mapstructure decode hooks that let config
// files use human-readable byte sizes ("1Gi") and durations ("30s").
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory, preferring
// XDG_CONFIG_HOME, then ~/.config, then the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hermes")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "hermes")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory.
func GetConfigDir() string {
	return getConfigDir()
}
