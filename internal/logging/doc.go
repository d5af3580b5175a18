// Package logging provides structured logging for slotsig.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. Scenario runs and signals attach their
// names so a trace can be reconstructed after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (signal, scenario, run ID)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation across the live log and its rotated backups
//   - Filtering utilities
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("scenario finished", "calls", 12)
//
// # Context Propagation
//
//	runLog := logger.WithScenario("reentrant").WithRun(runID)
//	runLog.Debug("emit", "depth", 2)
//
// # Log Rotation
//
//	cfg := logging.RotationConfig{MaxSizeMB: 10, MaxBackups: 3, Compress: true}
//	logger, err := logging.NewLoggerWithRotation(dir, "DEBUG", cfg)
//
// # Log Aggregation
//
//	entries, err := logging.AggregateLogs(dir)
//	warnings := logging.FilterLogs(entries, logging.LogFilter{Level: "WARN"})
//	err = logging.ExportLogEntries(warnings, "out.csv", "csv")
//
// # Configuration
//
// The CLI configures logging from the logging section of its config file:
//
//	logging:
//	  enabled: true
//	  level: debug
//	  dir: ~/.local/state/sigtrace
//	  max_size_mb: 10
//	  max_backups: 3
//	  compress: false
package logging
