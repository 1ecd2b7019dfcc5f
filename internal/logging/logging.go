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
		FilePath:   filepath.Join(home, ".config", "algobot", "logs", "bot.log"),
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
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// File writer with rotation
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
		writer = os.Stdout
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

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithSignalID adds a signal ID to the logger context.
func WithSignalID(logger zerolog.Logger, signalID string) zerolog.Logger {
	return logger.With().Str("signal_id", signalID).Logger()
}

// LogSignal logs an emitted crossover signal.
func LogSignal(logger zerolog.Logger, signalID, symbol, kind string, price float64, reason string) {
	logger.Info().
		Str("event", "signal").
		Str("signal_id", signalID).
		Str("symbol", symbol).
		Str("kind", kind).
		Float64("price", price).
		Str("reason", reason).
		Msg("Signal emitted")
}

// LogOrder logs an order lifecycle event.
func LogOrder(logger zerolog.Logger, signalID, symbol, side, status string, attempts int) {
	logger.Info().
		Str("event", "order").
		Str("signal_id", signalID).
		Str("symbol", symbol).
		Str("side", side).
		Str("status", status).
		Int("attempts", attempts).
		Msg("Order update")
}

// LogPass logs the outcome of one scheduled pass.
func LogPass(logger zerolog.Logger, slot string, scanned, signals, orders, errors int, duration time.Duration) {
	logger.Info().
		Str("event", "pass").
		Str("slot", slot).
		Int("scanned", scanned).
		Int("signals", signals).
		Int("orders", orders).
		Int("errors", errors).
		Dur("duration", duration).
		Msg("Scheduled pass completed")
}
