// Package logging builds the process logger from configuration. Tasks on
// the cluster log JSON to stderr so messages end up in the scheduler's
// per-task output files; interactive use gets the console encoder.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"syftbench/internal/config"
)

// New builds a logger for the configured level and format. verbose
// forces the debug level regardless of configuration.
func New(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	switch lc.Format {
	case "", "console":
		zc = zap.NewDevelopmentConfig()
	case "json":
		zc = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", lc.Format)
	}

	level := zapcore.InfoLevel
	if lc.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("unknown log level %q", lc.Level)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
