package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hermesio/hermes/internal/logger"
	"github.com/hermesio/hermes/pkg/config"
	"github.com/hermesio/hermes/pkg/hermes"
	"github.com/hermesio/hermes/pkg/metrics"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Hermes daemon in the foreground",
	Long: `Start Hermes, wiring the scope filter, open-file registry, blob
store, I/O engine, and flush pipeline from the configured mount points.

Examples:
  # Start with default config location
  hermesd start

  # Start with a custom config file
  hermesd start --config /etc/hermes/config.yaml

  # Override a setting via environment
  HERMES_LOGGING_LEVEL=DEBUG hermesd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("metrics enabled", "address", cfg.Metrics.Address)
	}

	hctx, err := hermes.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to wire hermes context: %w", err)
	}

	logger.Info("hermesd started", "mount_points", cfg.MountPoints, "adapter_mode", cfg.AdapterMode)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	signal.Stop(sigChan)

	logger.Info("shutdown signal received, draining flush pipeline", "timeout", cfg.ShutdownTimeout)
	done := make(chan error, 1)
	go func() { done <- hctx.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	case <-time.After(cfg.ShutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", cfg.ShutdownTimeout)
	}
	logger.Info("hermesd stopped")
	return nil
}
