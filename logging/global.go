package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/fdadrugs-api/config"
)

type LoggingService struct {
	Logger         *slog.Logger
	rotatingLogger *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with development defaults.
// An empty logDir logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithConfig(logDir, config.EnvDevelopment, "", 4, 100*1024*1024)
}

// InitLoggerWithConfig initializes the global logger from the application settings
func InitLoggerWithConfig(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	verbose := os.Getenv("TEST_VERBOSE") != ""
	consoleLevel := GetConsoleLogLevel(env, logLevel, verbose)

	logger, rotating := setupLogger(logDir, consoleLevel, retentionWeeks, maxFileSize)

	if DefaultLoggingService != nil && DefaultLoggingService.rotatingLogger != nil {
		_ = DefaultLoggingService.rotatingLogger.Close()
	}

	DefaultLoggingService = &LoggingService{
		Logger:         logger,
		rotatingLogger: rotating,
	}
	slog.SetDefault(logger)
}

// Close flushes and closes the rotating log file, if any
func Close() {
	if DefaultLoggingService != nil && DefaultLoggingService.rotatingLogger != nil {
		_ = DefaultLoggingService.rotatingLogger.Close()
		DefaultLoggingService.rotatingLogger = nil
	}
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// GetConsoleLogLevel returns the console level for an environment.
// An explicit LOG_LEVEL wins except in tests, which stay quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file handler level; files keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func fallbackLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelInfo).Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelError).Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelWarn).Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallbackLogger(slog.LevelDebug).Debug(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}
