// Package logging builds the zap loggers used across the module.
package logging

import (
	"os"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "ZABBIXRPC_LOG_LEVEL"

// New returns a production (JSON) logger at the given level. An empty level means info.
func New(level string) (*zap.Logger, error) {
	if env, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(env) != "" {
		level = env
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, errors.Trace(err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Annotate(err, "building logger")
	}
	return logger, nil
}

// ParseLevel accepts the usual level names plus a few aliases.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "off", "none", "disabled":
		// Nothing is logged above fatal in this module
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, errors.NotValidf("log level %q", raw)
	}
}
