package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igdroid/pkg/config"
	"igdroid/pkg/store"
	"igdroid/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage engine configuration.

Configuration is loaded from, in order of priority:
  - Command line flags
  - Environment variables (IGDROID_*)
  - Configuration file
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.igdroid.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and environment",
	Long: `Validate the configuration and check the environment the run command
will need: the adb binary, the database directory and the log directory.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# igdroid engine configuration
#
# Every option can also be set through environment variables prefixed with
# IGDROID_, for example IGDROID_DEVICE_SERIAL or IGDROID_DB_PATH.

# The Android app under automation
app:
  package: "com.instagram.android"
  # Force-stop and relaunch the app at the start of every run
  restart_on_run: true

# Device and automation agent transport
device:
  # Device serial; leave empty when only one device is connected
  serial: ""
  adb_path: "adb"
  # Port of the automation agent on the device
  agent_port: 7912
  # Local forwarded port; 0 picks a free one
  local_port: 0
  connect_timeout: 15s
  request_timeout: 30s
  max_retries: 3
  retry_delay: 2s

# SQLite database shared with the desktop app
database:
  # Leave empty for the platform application-data directory
  path: ""
  busy_timeout: 5s

# Human-like pacing between UI actions
pacing:
  actions_per_minute: 40
  burst: 1
  min_delay: 800ms
  max_delay: 2500ms

# Default crawl limits; campaign documents can override each one
limits:
  max_posts_per_source: 3
  max_likers_per_post: 50
  max_comments_per_post: 25
  max_profiles_to_enrich: 100
  max_no_new_users: 5
  max_duplicate_posts: 5
  repeats_to_end: 5
  session_duration: 60m
  recently_scraped_days: 30
  recently_scraped_limit: 5000

# Logging (stderr and optionally a rotated file; stdout stays clean)
logging:
  level: "info"
  format: "console"
  file: ""
  max_size_mb: 100
  max_backups: 3
  max_age_days: 7
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".igdroid.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(os.Stderr, "\nNext steps:")
	fmt.Fprintln(os.Stderr, "1. Adjust the configuration for your device setup")
	fmt.Fprintln(os.Stderr, "2. Run 'igdroid config validate' to check it")
	fmt.Fprintln(os.Stderr, "3. Run 'igdroid devices' to confirm the device is visible")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}
	fmt.Print(string(data))

	fmt.Fprintln(os.Stderr, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(os.Stderr, "1. Command line flags")
	fmt.Fprintln(os.Stderr, "2. Environment variables (IGDROID_*)")
	if configFile != "" {
		fmt.Fprintf(os.Stderr, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(os.Stderr, "3. Configuration file: (searched in standard locations)")
	}
	fmt.Fprintln(os.Stderr, "4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings, problems []string

	if _, err := exec.LookPath(cfg.Device.ADBPath); err != nil {
		problems = append(problems, fmt.Sprintf("adb binary not found at %q", cfg.Device.ADBPath))
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultPath()
		if err != nil {
			problems = append(problems, fmt.Sprintf("cannot resolve database path: %v", err))
		}
	}
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create database directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if cfg.Device.Serial == "" {
		warnings = append(warnings, "no device serial configured; the engine will pick the only connected device")
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has problems")
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  - %s\n", p)
		}
		os.Exit(1)
	}

	for _, w := range warnings {
		ui.PrintWarning(w)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(os.Stderr, "\nConfiguration summary:")
	fmt.Fprintf(os.Stderr, "  App package: %s\n", cfg.App.Package)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "  Pacing: %d actions/minute\n", cfg.Pacing.ActionsPerMinute)
	fmt.Fprintf(os.Stderr, "  Posts per source: %d\n", cfg.Limits.MaxPostsPerSource)
	fmt.Fprintf(os.Stderr, "  Session budget: %s\n", cfg.Limits.SessionDuration)
	fmt.Fprintf(os.Stderr, "  Log level: %s\n", cfg.Logging.Level)
}
