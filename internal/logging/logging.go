// Package logging builds the process zap logger from config and flags.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level   string // debug|info|warn|error
	Format  string // json|console
	Verbose bool
	// File sends output to a file instead of stderr. The TUI uses it so log
	// lines do not land on the alternate screen.
	File string
}

func New(o Options) (*zap.Logger, error) {
	var cfg zap.Config
	if o.Verbose || strings.EqualFold(o.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	level := zapcore.InfoLevel
	if s := strings.TrimSpace(o.Level); s != "" {
		if err := level.Set(s); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", s, err)
		}
	}
	if o.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if f := strings.TrimSpace(o.File); f != "" {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{f}
		cfg.ErrorOutputPaths = []string{f}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
