// Package logging configures the process-wide logrus logger and hands out
// per-component entries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Config mirrors the `log` section of the configuration file.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	File   string `mapstructure:"file"`
}

var (
	base     = logrus.New()
	loggers  = make(map[string]*logrus.Entry)
	loggerMu sync.Mutex
)

// NewLogger returns the shared entry for a component.
func NewLogger(component string) *logrus.Entry {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}
	entry := base.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Setup applies cfg to the base logger. When cfg.File is set the returned file
// must be closed by the caller; otherwise output goes to stderr and the file is nil.
func Setup(cfg Config) (*os.File, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if cfg.File == "" {
		base.SetOutput(os.Stderr)
		base.SetFormatter(formatter(cfg.Format, isTerminal(os.Stderr)))
		return nil, nil
	}

	dir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
	}
	base.SetOutput(file)
	base.SetFormatter(formatter(cfg.Format, false))
	return file, nil
}

// SetOutput redirects the base logger, e.g. to io.Discard while a full-screen UI runs.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func formatter(format string, colors bool) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   colors,
		DisableColors: !colors,
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
