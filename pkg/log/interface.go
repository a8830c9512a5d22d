// Package log provides a structured logging interface for mibench.
//
// The interface is slog-compatible and implementation-agnostic: the default
// backend is log/slog (see SetupLogger), and adapters exist for zerolog and
// zap so that the CLI can pick a backend from its configuration. Attribute
// keys for model-evaluation workloads live in attributes.go.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.PipelineKey, "LinearDiscriminantAnalysis",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("split scored",
//	    log.SplitKey, 3,
//	    log.AccuracyKey, 0.82,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface supports chaining through With, which returns a logger with
// pre-populated fields.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional key-value pairs.
	// If the first field is an error value, it is logged under ErrAttrKey
	// and backends that understand cockroachdb/errors attach its stack trace.
	//
	// Example:
	//   logger.Error("split failed",
	//       err,
	//       log.PipelineKey, "RandomForestClassifier",
	//       log.SplitKey, 4,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// splitError separates a leading error value from the remaining key-value pairs.
func splitError(fields []any) (error, []any) {
	if len(fields) == 0 {
		return nil, fields
	}
	if err, ok := fields[0].(error); ok {
		return err, fields[1:]
	}
	return nil, fields
}
