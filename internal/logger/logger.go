package logger

import (
	"fmt"

	"github.com/Speshl/gorrc_tank/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Bootstrap installs a default logger as the zap global so config loading can log before
// the configured logger exists.
func Bootstrap() *zap.Logger {
	logger, err := New(config.LogConfig{Level: config.DefaultLogLevel, Encoding: config.DefaultLogEncoding})
	if err != nil {
		logger = zap.NewExample()
	}
	zap.ReplaceGlobals(logger)
	return logger
}

func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch cfg.Encoding {
	case "json":
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed building logger: %w", err)
	}
	return logger, nil
}
