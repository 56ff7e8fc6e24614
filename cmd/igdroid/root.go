package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igdroid/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	serial     string
	adbPath    string
	dbPath     string
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igdroid",
	Short: "Instagram discovery engine driving a real Android device",
	Long: `igdroid crawls Instagram through the official Android app on a connected
device or emulator. It opens profiles, hashtags and posts, walks their
likers and comment threads, and writes every discovered profile to the
SQLite database shared with the desktop app.

The run command is normally spawned by the desktop app: machine-readable
events go to stdout, logs go to stderr, and the process exit code reports
the failure class.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.DisableColor()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igdroid.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, rotated; stderr always gets a copy")
	rootCmd.PersistentFlags().StringVarP(&serial, "serial", "s", "", "device serial (default: the only connected device)")
	rootCmd.PersistentFlags().StringVar(&adbPath, "adb-path", "", "path to the adb binary")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: app data directory)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Version template
	rootCmd.SetVersionTemplate(`igdroid {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags into the overrides map
// config.Load merges last.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if serial != "" {
		flags["serial"] = serial
	}
	if adbPath != "" {
		flags["adb-path"] = adbPath
	}
	if dbPath != "" {
		flags["db"] = dbPath
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	return flags
}
