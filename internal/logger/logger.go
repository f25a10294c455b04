package logger

import (
	"log/slog"
	"os"
	"strings"

	"eventstore-sqlite/pkg/utils"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: LevelFromEnv(),
	}))
}

// LevelFromEnv parses the LOG_LEVEL environment variable.
// Unknown or empty values fall back to Info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(utils.Getenv("LOG_LEVEL", "info")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLogger sets the global logger instance.
func SetLogger(l *slog.Logger) {
	defaultLogger = l
}

// Logger returns the default logger.
func Logger() *slog.Logger {
	return defaultLogger
}

// Debug logs at Debug level.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs at Info level.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs at Warn level.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs at Error level.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}
