package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dmmcquay/goban/internal/config"
)

// Config represents logging configuration.
type Config struct {
	Level   string
	Format  LogFormat
	Service string
	Version string
	Prefix  string
	Output  io.Writer             // defaults to os.Stderr
	File    *config.FileLogConfig // optional rotating file sink
}

// ConfigFrom builds a logging Config from the application config.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Level:   cfg.Logging.Level,
		Format:  LogFormat(cfg.Logging.Format),
		Service: cfg.Server.Name,
		Version: cfg.Server.Version,
		Prefix:  cfg.Logging.Prefix,
		File:    &cfg.Logging.File,
	}
}

type closer struct {
	logger *ZapLogger
	file   *lumberjack.Logger
}

func (c closer) Close() error {
	_ = c.logger.Sync()
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// NewLoggerFromConfig creates a logger based on configuration. The returned
// closer flushes the logger and closes the log file, if any.
func NewLoggerFromConfig(cfg *Config) (ContextLogger, io.Closer) {
	format := cfg.Format
	if format == "" {
		if envFormat := os.Getenv(config.EnvPrefix + "_LOG_FORMAT"); envFormat != "" {
			format = LogFormat(strings.ToLower(envFormat))
		} else {
			format = FormatJSON
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	atom := zap.NewAtomicLevelAt(ParseLevel(cfg.Level).zap())
	encoder := newEncoder(format)
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), atom)}

	var fileWriter *lumberjack.Logger
	if cfg.File != nil && cfg.File.Enabled && cfg.File.Path != "" {
		fw, err := NewFileWriter(*cfg.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file writer: %v\n", err)
		} else {
			fileWriter = fw
			// Files always get JSON so they stay machine readable.
			cores = append(cores, zapcore.NewCore(newEncoder(FormatJSON), zapcore.AddSync(fw), atom))
		}
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	if prefix := strings.Trim(cfg.Prefix, "[] :"); prefix != "" {
		z = z.Named(prefix)
	}
	var fields []zap.Field
	if cfg.Service != "" {
		fields = append(fields, zap.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	z = z.With(fields...)

	logger := NewZapLogger(z, atom)
	return logger, closer{logger: logger, file: fileWriter}
}

// MustGetLogger creates a logger or panics.
func MustGetLogger(cfg *Config) (ContextLogger, io.Closer) {
	logger, closer := NewLoggerFromConfig(cfg)
	if logger == nil {
		panic("failed to create logger")
	}
	return logger, closer
}
