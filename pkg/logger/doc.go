// Package logger provides structured logging for the discovery engine.
//
// It wraps the zerolog library behind a small interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Console output on stderr, keeping stdout free for the event stream
// - File output with rotation via lumberjack
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "igdroid/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "/var/log/igdroid.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Engine started")
//	logger.WithFields(map[string]interface{}{
//	    "source_type":  "hashtag",
//	    "source_value": "golang",
//	}).Info("Source started")
//
// Console output always goes to stderr. The desktop app that spawns this
// process reads newline-delimited JSON events from stdout, so nothing in
// this package may ever write there.
package logger
