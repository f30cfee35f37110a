package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig controls how the service logger is built.
type LoggingConfig struct {
	// Level names the minimum level to emit (trace through panic).
	Level string
	// Format selects json output or a human console rendering.
	Format string
	// Output is stdout or stderr.
	Output string
	// AddSource annotates entries with the calling file and line.
	AddSource bool
	// TimeFormat overrides the timestamp layout, RFC3339 by default.
	TimeFormat string
}

// DefaultLoggingConfig is the production setup: info-level JSON on
// stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger builds a zerolog logger from cfg. The chosen level is also
// installed as the zerolog global level.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	var sink io.Writer = os.Stdout
	if strings.ToLower(cfg.Output) == "stderr" {
		sink = os.Stderr
	}
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		sink = zerolog.ConsoleWriter{Out: sink, TimeFormat: zerolog.TimeFieldFormat}
	}

	builder := zerolog.New(sink).With().Timestamp()
	if cfg.AddSource {
		builder = builder.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return builder.Logger().Level(level)
}

// parseLevel maps a level name to zerolog's type, defaulting unknown
// names to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent tags a logger with the subsystem it belongs to.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithRequestContext tags a logger with the request and user it serves.
func WithRequestContext(logger zerolog.Logger, requestID, userID string) zerolog.Logger {
	return logger.With().Str("request_id", requestID).Str("user_id", userID).Logger()
}

// WithTaskContext tags a logger with a background task and its owner.
func WithTaskContext(logger zerolog.Logger, taskID, userID string) zerolog.Logger {
	return logger.With().Str("task_id", taskID).Str("user_id", userID).Logger()
}

// WithPaperContext tags a logger with the paper being processed.
func WithPaperContext(logger zerolog.Logger, paperID string) zerolog.Logger {
	return logger.With().Str("paper_id", paperID).Logger()
}
