package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.App.Package != "com.instagram.android" {
		t.Errorf("Expected default app package to be com.instagram.android, got %s", config.App.Package)
	}
	if config.Device.AgentPort != 7912 {
		t.Errorf("Expected default agent port to be 7912, got %d", config.Device.AgentPort)
	}
	if config.Pacing.ActionsPerMinute != 40 {
		t.Errorf("Expected default actions per minute to be 40, got %d", config.Pacing.ActionsPerMinute)
	}
	if config.Limits.RepeatsToEnd != 5 {
		t.Errorf("Expected default repeats to end to be 5, got %d", config.Limits.RepeatsToEnd)
	}
	if config.Limits.MaxNoNewUsers != 5 {
		t.Errorf("Expected default max no new users to be 5, got %d", config.Limits.MaxNoNewUsers)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("IGDROID_DEVICE_SERIAL", "emulator-5554")
	os.Setenv("IGDROID_AGENT_PORT", "7001")
	os.Setenv("IGDROID_DB_PATH", "/tmp/test-discovery.db")
	os.Setenv("IGDROID_ACTIONS_PER_MINUTE", "25")
	os.Setenv("IGDROID_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("IGDROID_DEVICE_SERIAL")
		os.Unsetenv("IGDROID_AGENT_PORT")
		os.Unsetenv("IGDROID_DB_PATH")
		os.Unsetenv("IGDROID_ACTIONS_PER_MINUTE")
		os.Unsetenv("IGDROID_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Device.Serial != "emulator-5554" {
		t.Errorf("Expected serial to be emulator-5554, got %s", config.Device.Serial)
	}
	if config.Device.AgentPort != 7001 {
		t.Errorf("Expected agent port to be 7001, got %d", config.Device.AgentPort)
	}
	if config.Database.Path != "/tmp/test-discovery.db" {
		t.Errorf("Expected database path to be /tmp/test-discovery.db, got %s", config.Database.Path)
	}
	if config.Pacing.ActionsPerMinute != 25 {
		t.Errorf("Expected actions per minute to be 25, got %d", config.Pacing.ActionsPerMinute)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing app package",
			mutate:    func(c *Config) { c.App.Package = "" },
			wantError: true,
		},
		{
			name:      "agent port out of range",
			mutate:    func(c *Config) { c.Device.AgentPort = 70000 },
			wantError: true,
		},
		{
			name:      "zero actions per minute",
			mutate:    func(c *Config) { c.Pacing.ActionsPerMinute = 0 },
			wantError: true,
		},
		{
			name: "max delay below min delay",
			mutate: func(c *Config) {
				c.Pacing.MinDelay = 3 * time.Second
				c.Pacing.MaxDelay = 1 * time.Second
			},
			wantError: true,
		},
		{
			name:      "zero repeats to end",
			mutate:    func(c *Config) { c.Limits.RepeatsToEnd = 0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
		{
			name:      "invalid log format",
			mutate:    func(c *Config) { c.Logging.Format = "xml" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"serial":    "R58M123ABC",
		"db":        "/data/discovery.db",
		"log-level": "debug",
	}
	config.MergeCommandLineFlags(flags)

	if config.Device.Serial != "R58M123ABC" {
		t.Errorf("Expected serial to be R58M123ABC, got %s", config.Device.Serial)
	}
	if config.Database.Path != "/data/discovery.db" {
		t.Errorf("Expected database path to be /data/discovery.db, got %s", config.Database.Path)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}

	// Empty flag values must not clobber existing settings.
	config.MergeCommandLineFlags(map[string]interface{}{"serial": ""})
	if config.Device.Serial != "R58M123ABC" {
		t.Errorf("Empty serial flag overwrote existing value")
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := DefaultConfig()
	original.Device.Serial = "emulator-5556"
	original.Limits.MaxLikersPerPost = 75

	if err := original.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Device.Serial != "emulator-5556" {
		t.Errorf("Expected serial to be emulator-5556, got %s", loaded.Device.Serial)
	}
	if loaded.Limits.MaxLikersPerPost != 75 {
		t.Errorf("Expected max likers per post to be 75, got %d", loaded.Limits.MaxLikersPerPost)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for explicitly named missing file")
	}
	// No explicit path and no file in standard locations is not an error.
	if err := config.LoadFromFile(""); err != nil {
		t.Errorf("Unexpected error with no config file: %v", err)
	}
}
