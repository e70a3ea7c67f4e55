// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "firefight", "logs", "firefight.log"),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stderr
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithGroup adds a strategy group context to the logger.
func WithGroup(logger zerolog.Logger, groupID, name string) zerolog.Logger {
	return logger.With().Str("group_id", groupID).Str("group", name).Logger()
}

// WithLeg adds a leg context to the logger.
func WithLeg(logger zerolog.Logger, legID string, strike float64, optType string) zerolog.Logger {
	return logger.With().Str("leg_id", legID).Float64("strike", strike).Str("type", optType).Logger()
}

// LogFirefight logs an executed firefighting action.
func LogFirefight(logger zerolog.Logger, group, technique string, strike float64) {
	logger.Info().
		Str("event", "firefight").
		Str("group", group).
		Str("technique", technique).
		Float64("strike", strike).
		Msg("Firefighting action executed")
}

// LogQuoteRefresh logs the outcome of a price refresh cycle.
func LogQuoteRefresh(logger zerolog.Logger, group string, updated int, spot float64) {
	logger.Info().
		Str("event", "refresh").
		Str("group", group).
		Int("legs_updated", updated).
		Float64("spot", spot).
		Msg("Prices refreshed")
}
