// Package stdout implements log.Logger on top of zap, writing structured
// entries to stdout (JSON in production mode, console format in
// development mode). Grounded on the teacher's internal/log/driver/stdout
// package, trimmed to the fields and levels ferry actually needs.
package stdout

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ferrylb/ferry/pkg/log"
)

// Logger adapts a *zap.Logger to the log.Logger interface.
type Logger struct {
	zap *zap.Logger
}

// Config controls the underlying zap encoder.
type Config struct {
	Level       log.Level
	Development bool
}

// DefaultConfig returns production-leaning defaults: info level, JSON
// encoding, no development niceties.
func DefaultConfig() Config {
	return Config{Level: log.InfoLevel, Development: false}
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.Level = zap.NewAtomicLevelAt(toZapLevel(cfg.Level))
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zap: zl}, nil
}

func toZapLevel(l log.Level) zapcore.Level {
	switch l {
	case log.DebugLevel:
		return zapcore.DebugLevel
	case log.WarnLevel:
		return zapcore.WarnLevel
	case log.ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []log.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *Logger) Debug(msg string, fields ...log.Field) { l.zap.Debug(msg, toZapFields(fields)...) }
func (l *Logger) Info(msg string, fields ...log.Field)  { l.zap.Info(msg, toZapFields(fields)...) }
func (l *Logger) Warn(msg string, fields ...log.Field)  { l.zap.Warn(msg, toZapFields(fields)...) }
func (l *Logger) Error(msg string, fields ...log.Field) { l.zap.Error(msg, toZapFields(fields)...) }

// With returns a logger carrying fields in every subsequent entry.
func (l *Logger) With(fields ...log.Field) log.Logger {
	return &Logger{zap: l.zap.With(toZapFields(fields)...)}
}

// WithContext is a no-op in this driver; ferry does not currently thread
// request-scoped fields through context.Context.
func (l *Logger) WithContext(ctx context.Context) log.Logger {
	return l
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
