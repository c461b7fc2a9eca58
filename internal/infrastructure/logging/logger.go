package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. Subsystems log through named children.
type Logger struct {
	*zap.Logger
}

// Config selects the level, format and sinks. An empty Level means info.
type Config struct {
	Level       string
	Development bool
	OutputPaths []string
}

// New builds a JSON logger, or a colored console logger in development mode.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	sinks := cfg.OutputPaths
	if len(sinks) == 0 {
		sinks = []string{"stdout"}
	}

	encoding := "json"
	if cfg.Development {
		encoding = "console"
	}

	z, err := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig(cfg.Development),
		OutputPaths:       sinks,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: z}, nil
}

// FromSettings builds a logger from the LOG_LEVEL / LOG_DEV settings. An
// unknown level keeps the mode's default: debug in development, info
// otherwise. It never fails; a logger that cannot be built is a no-op.
func FromSettings(level string, development bool) *Logger {
	cfg := Config{Level: "info", Development: development}
	if development {
		cfg.Level = "debug"
	}
	if _, err := zapcore.ParseLevel(level); err == nil && level != "" {
		cfg.Level = level
	}

	l, err := New(cfg)
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return l
}

// Component returns a named child logger for one subsystem.
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return enc
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc
}
