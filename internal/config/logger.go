package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the diagnostic logger. Output always goes to stderr so stdout
// stays reserved for exposition text.
func NewLogger(opts LogOptions) (*zap.SugaredLogger, error) {
	logCfg := zap.NewProductionConfig()
	if opts.Development {
		logCfg = zap.NewDevelopmentConfig()
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}

	if opts.Level != "" {
		lvl, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		logCfg.Level = lvl
	}

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
