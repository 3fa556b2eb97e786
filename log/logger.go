/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"os"

	"github.com/ssgreg/logf"
)

// Field is a single structured field of a log entry.
type Field = logf.Field

// LogFunc logs a message at the level it's bound to.
// nolint: revive
type LogFunc = logf.LogFunc

// CloseFunc flushes buffered entries and stops the logger's writer.
type CloseFunc func()

// Field constructors.
var (
	Error    = logf.Error
	String   = logf.String
	Strings  = logf.Strings
	Int      = logf.Int
	Int64    = logf.Int64
	Bool     = logf.Bool
	Bytes    = logf.Bytes
	Duration = logf.Duration
)

// FieldLogger is a leveled logger with structured fields.
// Busy tracking and all HTTP components accept it and fall back to NewDisabledLogger when it's nil.
type FieldLogger interface {
	With(fields ...Field) FieldLogger

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// AtLevel calls fn only if the level is enabled,
	// so fields of debug messages on hot paths (every busy event) are not built needlessly.
	AtLevel(level Level, fn func(logFunc LogFunc))

	// WithLevel returns a logger that additionally drops messages below level.
	WithLevel(level Level) FieldLogger
}

// Logger implements FieldLogger on top of logf.
type Logger struct {
	logf *logf.Logger
}

var _ FieldLogger = (*Logger)(nil)

// Wrap returns a FieldLogger backed by the given logf logger.
func Wrap(l *logf.Logger) *Logger {
	return &Logger{logf: l}
}

// NewDisabledLogger returns a logger that drops everything.
func NewDisabledLogger() FieldLogger {
	return Wrap(logf.NewDisabledLogger())
}

// NewLogger creates an asynchronous logger writing to the output described by cfg.
// The returned CloseFunc must be called before the process exits, otherwise the last entries may be lost.
func NewLogger(cfg *Config) (FieldLogger, CloseFunc) {
	w, closeWriter := logf.NewChannelWriter(logf.ChannelWriterConfig{
		Appender:          newAppender(cfg),
		EnableSyncOnError: true,
	})
	l := logf.NewLogger(cfg.Level.logfLevel(), w).With(logf.Int("pid", os.Getpid()))
	if cfg.AddCaller {
		// Skip the frame of Logger's own method.
		l = l.WithCaller().WithCallerSkip(1)
	}
	return Wrap(l), CloseFunc(closeWriter)
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) FieldLogger {
	return Wrap(l.logf.With(fields...))
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.logf.Debug(msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.logf.Info(msg, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.logf.Warn(msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.logf.Error(msg, fields...) }

// AtLevel implements FieldLogger.
func (l *Logger) AtLevel(level Level, fn func(logFunc LogFunc)) {
	l.logf.AtLevel(level.logfLevel(), fn)
}

// WithLevel implements FieldLogger. Levels may only be raised: a debug logger derived from a warn logger stays warn.
func (l *Logger) WithLevel(level Level) FieldLogger {
	return Wrap(l.logf.WithLevel(level.logfLevel()))
}
