package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all engine-level configuration. Per-campaign settings arrive
// separately as a Campaign document; zero values there fall back to the
// limits configured here.
type Config struct {
	// Instagram app under automation
	App AppConfig `yaml:"app" json:"app"`

	// Device and agent transport
	Device DeviceConfig `yaml:"device" json:"device"`

	// SQLite database shared with the desktop app
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Human-like pacing between UI actions
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Default crawl limits, overridable per campaign
	Limits LimitsConfig `yaml:"limits" json:"limits"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AppConfig identifies the Android app being driven.
type AppConfig struct {
	Package      string `yaml:"package" json:"package"`
	RestartOnRun bool   `yaml:"restart_on_run" json:"restart_on_run"`
}

// DeviceConfig holds the adb and automation agent transport settings.
type DeviceConfig struct {
	Serial         string        `yaml:"serial" json:"serial"`
	ADBPath        string        `yaml:"adb_path" json:"adb_path"`
	AgentPort      int           `yaml:"agent_port" json:"agent_port"`
	LocalPort      int           `yaml:"local_port" json:"local_port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// DatabaseConfig holds SQLite settings. An empty path resolves to the
// platform application-data directory at open time.
type DatabaseConfig struct {
	Path        string        `yaml:"path" json:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout" json:"busy_timeout"`
}

// PacingConfig throttles UI actions so sessions look human.
type PacingConfig struct {
	ActionsPerMinute int           `yaml:"actions_per_minute" json:"actions_per_minute"`
	Burst            int           `yaml:"burst" json:"burst"`
	MinDelay         time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay         time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LimitsConfig bounds how much a campaign scrapes. Zero values in a
// campaign document inherit from these.
type LimitsConfig struct {
	MaxPostsPerSource    int           `yaml:"max_posts_per_source" json:"max_posts_per_source"`
	MaxLikersPerPost     int           `yaml:"max_likers_per_post" json:"max_likers_per_post"`
	MaxCommentsPerPost   int           `yaml:"max_comments_per_post" json:"max_comments_per_post"`
	MaxProfilesToEnrich  int           `yaml:"max_profiles_to_enrich" json:"max_profiles_to_enrich"`
	MaxNoNewUsers        int           `yaml:"max_no_new_users" json:"max_no_new_users"`
	MaxDuplicatePosts    int           `yaml:"max_duplicate_posts" json:"max_duplicate_posts"`
	RepeatsToEnd         int           `yaml:"repeats_to_end" json:"repeats_to_end"`
	SessionDuration      time.Duration `yaml:"session_duration" json:"session_duration"`
	RecentlyScrapedDays  int           `yaml:"recently_scraped_days" json:"recently_scraped_days"`
	RecentlyScrapedLimit int           `yaml:"recently_scraped_limit" json:"recently_scraped_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Package:      "com.instagram.android",
			RestartOnRun: true,
		},
		Device: DeviceConfig{
			ADBPath:        "adb",
			AgentPort:      7912,
			ConnectTimeout: 15 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryDelay:     2 * time.Second,
		},
		Database: DatabaseConfig{
			BusyTimeout: 5 * time.Second,
		},
		Pacing: PacingConfig{
			ActionsPerMinute: 40,
			Burst:            1,
			MinDelay:         800 * time.Millisecond,
			MaxDelay:         2500 * time.Millisecond,
		},
		Limits: LimitsConfig{
			MaxPostsPerSource:    3,
			MaxLikersPerPost:     50,
			MaxCommentsPerPost:   25,
			MaxProfilesToEnrich:  100,
			MaxNoNewUsers:        5,
			MaxDuplicatePosts:    5,
			RepeatsToEnd:         5,
			SessionDuration:      60 * time.Minute,
			RecentlyScrapedDays:  30,
			RecentlyScrapedLimit: 5000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if serial := os.Getenv("IGDROID_DEVICE_SERIAL"); serial != "" {
		c.Device.Serial = serial
	}
	if adbPath := os.Getenv("IGDROID_ADB_PATH"); adbPath != "" {
		c.Device.ADBPath = adbPath
	}
	if port := os.Getenv("IGDROID_AGENT_PORT"); port != "" {
		var val int
		fmt.Sscanf(port, "%d", &val)
		if val > 0 {
			c.Device.AgentPort = val
		}
	}
	if pkg := os.Getenv("IGDROID_APP_PACKAGE"); pkg != "" {
		c.App.Package = pkg
	}
	if dbPath := os.Getenv("IGDROID_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if apm := os.Getenv("IGDROID_ACTIONS_PER_MINUTE"); apm != "" {
		var val int
		fmt.Sscanf(apm, "%d", &val)
		if val > 0 {
			c.Pacing.ActionsPerMinute = val
		}
	}
	if logLevel := os.Getenv("IGDROID_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("IGDROID_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file is fine, defaults apply
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".igdroid.yaml",
		".igdroid.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igdroid", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igdroid", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igdroid.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Package == "" {
		errs = append(errs, errors.New("app package is required"))
	}
	if c.Device.AgentPort <= 0 || c.Device.AgentPort > 65535 {
		errs = append(errs, errors.New("agent port must be between 1 and 65535"))
	}
	if c.Device.RequestTimeout <= 0 {
		errs = append(errs, errors.New("device request timeout must be positive"))
	}
	if c.Device.MaxRetries < 0 {
		errs = append(errs, errors.New("device max retries cannot be negative"))
	}

	if c.Pacing.ActionsPerMinute <= 0 {
		errs = append(errs, errors.New("actions per minute must be positive"))
	}
	if c.Pacing.Burst <= 0 {
		errs = append(errs, errors.New("pacing burst must be positive"))
	}
	if c.Pacing.MinDelay < 0 || c.Pacing.MaxDelay < c.Pacing.MinDelay {
		errs = append(errs, errors.New("pacing delays must satisfy 0 <= min <= max"))
	}

	if c.Limits.MaxPostsPerSource <= 0 {
		errs = append(errs, errors.New("max posts per source must be positive"))
	}
	if c.Limits.RepeatsToEnd <= 0 {
		errs = append(errs, errors.New("repeats to end must be positive"))
	}
	if c.Limits.MaxNoNewUsers <= 0 {
		errs = append(errs, errors.New("max no new users must be positive"))
	}
	if c.Limits.MaxDuplicatePosts <= 0 {
		errs = append(errs, errors.New("max duplicate posts must be positive"))
	}
	if c.Limits.RecentlyScrapedDays < 0 {
		errs = append(errs, errors.New("recently scraped days cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, errors.New("log format must be console or json"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if serial, ok := flags["serial"].(string); ok && serial != "" {
		c.Device.Serial = serial
	}
	if adbPath, ok := flags["adb-path"].(string); ok && adbPath != "" {
		c.Device.ADBPath = adbPath
	}
	if dbPath, ok := flags["db"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file >
// config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igdroid.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}
