// Package logging builds the process zap logger and adapts it to the
// component-tagged Logger interface the other packages accept.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string
	Development bool
	// File, when set, is written in addition to stderr.
	File string
}

// New builds a development logger (console, colored levels) or a production
// one (JSON).
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if cfg.File != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.File)
		zapConfig.ErrorOutputPaths = append(zapConfig.ErrorOutputPaths, cfg.File)
		// Color codes only make sense on a terminal.
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapConfig.Build()
}

// ParseLevel maps a level name onto zap's levels, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Adapter exposes a zap logger through Infof/Errorf(component, ...). Each
// component becomes a named child logger.
type Adapter struct {
	base *zap.Logger
}

func NewAdapter(base *zap.Logger) *Adapter {
	if base == nil {
		base = zap.NewNop()
	}
	return &Adapter{base: base}
}

func (a *Adapter) Infof(component string, format string, args ...interface{}) {
	a.base.Named(component).Sugar().Infof(format, args...)
}

func (a *Adapter) Errorf(component string, format string, args ...interface{}) {
	a.base.Named(component).Sugar().Errorf(format, args...)
}

func (a *Adapter) Zap() *zap.Logger { return a.base }

func (a *Adapter) Sync() error { return a.base.Sync() }
