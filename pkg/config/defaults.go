package config

import (
	"strings"
	"time"

	"github.com/hermesio/hermes/internal/bytesize"
)

// defaultPageSize matches pagemap.DefaultPageSize and the upstream kPageSize
// default of 1 MiB pages.
const defaultPageSize = 1 * bytesize.MiB

// ApplyDefaults fills unset fields of cfg with Hermes's defaults. Zero
// values (0, "", nil) are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.BufferPoolShmemName == "" {
		cfg.BufferPoolShmemName = "/hermes_buffer_pool"
	}
	if cfg.AdapterMode == "" {
		cfg.AdapterMode = "default"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Address == "" {
		cfg.Address = ":9090"
	}
}

// GetDefaultConfig returns a fully defaulted Config, used when no config
// file is found at the resolved path.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
