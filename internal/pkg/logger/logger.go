package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

type zapLogger struct {
	logger *zap.Logger
}

// New creates a zap backed logger. level is one of debug, info, warn, error (default info).
func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return &zapLogger{logger: z}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{logger: zap.NewNop()}
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{logger: z.WithOptions(zap.AddCallerSkip(1))}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Error logs an error message. err may be nil.
func (l *zapLogger) Error(msg string, err error) {
	if err == nil {
		l.logger.Error(msg)
		return
	}
	l.logger.Error(msg, zap.Error(err))
}

// Warn logs a warning message.
func (l *zapLogger) Warn(msg string) {
	l.logger.Warn(msg)
}

// Info logs an informational message.
func (l *zapLogger) Info(msg string) {
	l.logger.Info(msg)
}

// Debug logs a debug message.
func (l *zapLogger) Debug(msg string) {
	l.logger.Debug(msg)
}

// Sync flushes buffered entries. Safe to call on any Logger.
func Sync(l Logger) {
	if zl, ok := l.(*zapLogger); ok {
		_ = zl.logger.Sync()
	}
}
