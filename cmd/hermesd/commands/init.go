package commands

import (
	"fmt"
	"os"

	"github.com/hermesio/hermes/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample Hermes configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/hermes/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  hermesd init

  # Initialize with custom path
  hermesd init --config /etc/hermes/config.yaml

  # Force overwrite existing config
  hermesd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := config.GetDefaultConfig()
	cfg.MountPoints = []string{"/mnt/hermes"}

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit mount_points and the page_size/adapter_mode to match your setup")
	fmt.Printf("  2. Start the daemon with: hermesd start --config %s\n", path)
	return nil
}
