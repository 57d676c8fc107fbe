package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hermesio/hermes/internal/bytesize"
	"github.com/hermesio/hermes/pkg/scope"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
mount_points:
  - "` + yamlSafePath(tmpDir) + `"
page_size: 64Ki
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.PageSize != 64*bytesize.KiB {
		t.Errorf("expected page_size 64Ki, got %v", cfg.PageSize)
	}
	if cfg.AdapterMode != "default" {
		t.Errorf("expected default adapter_mode 'default', got %q", cfg.AdapterMode)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config to be returned")
	}
	if cfg.PageSize != defaultPageSize {
		t.Errorf("expected default page size, got %v", cfg.PageSize)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
mount_points:
  - "` + yamlSafePath(tmpDir) + `"
page_size: 64Ki
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("HERMES_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected env override to set level to DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestValidate_RequiresMountPoints(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for missing mount_points")
	}

	cfg.MountPoints = []string{"/data"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_RejectsBadAdapterMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.MountPoints = []string{"/data"}
	cfg.AdapterMode = "nonsense"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid adapter_mode")
	}
}

func TestParseAdapterMode(t *testing.T) {
	cases := map[string]scope.AdapterMode{
		"":         scope.ModeDefault,
		"default":  scope.ModeDefault,
		"bypass":   scope.ModeBypass,
		"Scratch":  scope.ModeScratch,
		"WORKFLOW": scope.ModeWorkflow,
	}

	for in, want := range cases {
		cfg := &Config{AdapterMode: in}
		if got := cfg.ParseAdapterMode(); got != want {
			t.Errorf("ParseAdapterMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.MountPoints = []string{"/data"}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if len(loaded.MountPoints) != 1 || loaded.MountPoints[0] != "/data" {
		t.Errorf("expected mount_points [/data], got %v", loaded.MountPoints)
	}
}

func TestDefaultConfigExists(t *testing.T) {
	if DefaultConfigExists() {
		t.Skip("a config file exists at the default location in this environment")
	}
}
