// Package logging provides structured logging for the profiler.
//
// It wraps log/slog so every record carries the service name and build
// version, with JSON output for batch runs and text output for terminals.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.WithRun(runID).Info("batch started", "devices", n)
package logging
