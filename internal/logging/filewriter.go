package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dmmcquay/goban/internal/config"
)

// NewFileWriter returns a log file writer that rotates at cfg.MaxSize
// megabytes, keeps at most cfg.MaxBackups old files no older than cfg.MaxAge
// days, and gzips them when cfg.Compress is set. Zero limits keep everything;
// a zero size rotates at 100MB.
func NewFileWriter(cfg config.FileLogConfig) (*lumberjack.Logger, error) {
	if cfg.Path == "" {
		return nil, errors.New("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}
