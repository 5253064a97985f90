package logging

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat represents the log output format.
type LogFormat string

const (
	// FormatText is a human-readable console format.
	FormatText LogFormat = "text"
	// FormatJSON is structured JSON format.
	FormatJSON LogFormat = "json"
)

// ZapLogger is the ContextLogger backed by a zap SugaredLogger. Loggers
// derived through With* share the parent's level.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// NewZapLogger wraps an existing zap logger. level must be the AtomicLevel
// guarding the logger's core.
func NewZapLogger(l *zap.Logger, level zap.AtomicLevel) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar(), level: level}
}

// NewLogger writes entries in format to w.
func NewLogger(w io.Writer, format LogFormat, level string) *ZapLogger {
	atom := zap.NewAtomicLevelAt(ParseLevel(level).zap())
	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(w), atom)
	return NewZapLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), atom)
}

// NewNop returns a logger that discards everything.
func NewNop() *ZapLogger {
	return NewZapLogger(zap.NewNop(), zap.NewAtomicLevel())
}

func newEncoder(format LogFormat) zapcore.Encoder {
	if format == FormatText {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Zap exposes the underlying logger.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

func (l *ZapLogger) with(kv ...interface{}) *ZapLogger {
	return &ZapLogger{sugar: l.sugar.With(kv...), level: l.level}
}

// WithContext returns a logger with the correlation, request and match IDs
// found in ctx.
func (l *ZapLogger) WithContext(ctx context.Context) ContextLogger {
	var kv []interface{}
	if id, ok := CorrelationIDFromContext(ctx); ok {
		kv = append(kv, "correlation_id", id)
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		kv = append(kv, "request_id", id)
	}
	if id, ok := MatchIDFromContext(ctx); ok {
		kv = append(kv, "match_id", id)
	}
	if len(kv) == 0 {
		return l
	}
	return l.with(kv...)
}

// WithFields returns a logger with additional fields.
func (l *ZapLogger) WithFields(fields map[string]interface{}) ContextLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return l.with(kv...)
}

// WithField returns a logger with an additional field.
func (l *ZapLogger) WithField(key string, value interface{}) ContextLogger {
	return l.with(key, value)
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(message string, args ...interface{}) {
	msg, kv := splitArgs(message, args)
	l.sugar.Debugw(msg, kv...)
}

// Info logs an info message.
func (l *ZapLogger) Info(message string, args ...interface{}) {
	msg, kv := splitArgs(message, args)
	l.sugar.Infow(msg, kv...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(message string, args ...interface{}) {
	msg, kv := splitArgs(message, args)
	l.sugar.Warnw(msg, kv...)
}

// Error logs an error message.
func (l *ZapLogger) Error(message string, args ...interface{}) {
	msg, kv := splitArgs(message, args)
	l.sugar.Errorw(msg, kv...)
}

// Fatal logs a fatal message and exits.
func (l *ZapLogger) Fatal(message string, args ...interface{}) {
	msg, kv := splitArgs(message, args)
	l.sugar.Fatalw(msg, kv...)
}

// SetLevel sets the logging level.
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// GetLevel returns the current logging level.
func (l *ZapLogger) GetLevel() Level {
	return levelFromZap(l.level.Level())
}

// splitArgs applies the printf-then-key/value convention. Leading args fill
// the message's verbs; the rest become fields, with an unpaired trailing
// value stored under "extra".
func splitArgs(message string, args []interface{}) (string, []interface{}) {
	if len(args) == 0 {
		return message, nil
	}

	verbs := countVerbs(message)
	if verbs > 0 && len(args) >= verbs {
		message = fmt.Sprintf(message, args[:verbs]...)
		args = args[verbs:]
	}

	kv := make([]interface{}, 0, len(args)+1)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		kv = append(kv, key, args[i+1])
	}
	if len(args)%2 == 1 {
		kv = append(kv, "extra", args[len(args)-1])
	}
	return message, kv
}

func countVerbs(message string) int {
	if !strings.Contains(message, "%") {
		return 0
	}
	n := 0
	for i := 0; i < len(message)-1; i++ {
		if message[i] != '%' {
			continue
		}
		if message[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}
