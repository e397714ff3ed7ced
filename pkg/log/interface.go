// Package log defines ferry's structured logging interface, independent of
// the backing implementation. Components depend on Logger, not on any
// concrete driver.
package log

import (
	"context"
	"time"
)

// Logger logs structured messages at a given level and can be narrowed
// with additional fields via With.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that includes fields in every subsequent
	// entry, in addition to this logger's own fields.
	With(fields ...Field) Logger

	// WithContext returns a logger enriched with any fields carried on
	// ctx (e.g. a request id attached upstream).
	WithContext(ctx context.Context) Logger
}

// Level is a logging severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
