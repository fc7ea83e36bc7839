package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide logger. Local/dev environments get a
// human-readable console encoder at debug level; everything else gets
// production JSON at info level.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "local", "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
