// Package logger builds the zap logger shared by the binaries.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger settings. Zero values mean info level, console
// encoding and stderr.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json or console
	OutputPath string
	// Fields are attached to every entry, e.g. the binary name.
	Fields map[string]any
}

// New builds a zap.Logger from cfg. Unknown levels and encodings are errors
// so a typo in the environment is caught at startup.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	encoding := strings.ToLower(cfg.Encoding)
	switch encoding {
	case "":
		encoding = "console"
	case "console", "json":
	default:
		return nil, fmt.Errorf("log encoding %q: must be console or json", cfg.Encoding)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	out := cfg.OutputPath
	if out == "" {
		// stdout belongs to command output
		out = "stderr"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{out},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     cfg.Fields,
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
