// Package logging constructs the process-wide zap logger.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger for the given level string (DEBUG, INFO, WARN,
// ERROR). DEBUG uses the development config (human-readable); everything
// else uses the production config (JSON) at the requested level.
func New(level string) (*zap.Logger, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zap.NewDevelopment()
	case "WARN", "WARNING":
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		return cfg.Build()
	case "ERROR":
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		return cfg.Build()
	default:
		return zap.NewProduction()
	}
}
