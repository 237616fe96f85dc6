// Package logging provides structured logging functionality.
package logging

import (
	"context"
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
		FilePath:   filepath.Join(home, ".config", "strategy-trader", "logs", "trader.log"),
		MaxSize:    100,
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

	// Console writer
	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger
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

// SetInfoLevel sets the global log level to info.
func SetInfoLevel() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSession adds a session ID to the logger context.
func WithSession(logger zerolog.Logger, sessionID string) zerolog.Logger {
	return logger.With().Str("session_id", sessionID).Logger()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithStrategy adds a strategy name to the logger context.
func WithStrategy(logger zerolog.Logger, strategy string) zerolog.Logger {
	return logger.With().Str("strategy", strategy).Logger()
}

// LogSignal logs a strategy signal.
func LogSignal(logger zerolog.Logger, strategy, symbol, action string, confidence float64) {
	logger.Debug().
		Str("event", "signal").
		Str("strategy", strategy).
		Str("symbol", symbol).
		Str("action", action).
		Float64("confidence", confidence).
		Msg("Signal generated")
}

// LogTradeOpen logs a position entry.
func LogTradeOpen(logger zerolog.Logger, symbol, side string, qty int, price float64) {
	logger.Info().
		Str("event", "trade_open").
		Str("symbol", symbol).
		Str("side", side).
		Int("quantity", qty).
		Float64("price", price).
		Msg("Position opened")
}

// LogTradeClose logs a position exit.
func LogTradeClose(logger zerolog.Logger, symbol, reason string, qty int, price, pnl float64) {
	logger.Info().
		Str("event", "trade_close").
		Str("symbol", symbol).
		Str("exit_reason", reason).
		Int("quantity", qty).
		Float64("price", price).
		Float64("pnl", pnl).
		Msg("Position closed")
}
