// Package logging is the structured logger used by every TreatIQ component.
// Code depends on the Logger interface; zap stays behind NewLogger so tests
// can pass NewNopLogger or a zaptest observer core.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal exits the process after logging.  Only binaries call it.
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Logger
	// Named appends a dot-separated segment to the logger name,
	// e.g. "engine" then "batch" gives "engine.batch".
	Named(name string) Logger
}

// LevelSetter is implemented by loggers whose level can be changed while
// running, which is how config reloads apply log.level.
type LevelSetter interface {
	SetLevel(level string)
}

// LogConfig is the log section of the service configuration.
type LogConfig struct {
	// Level is debug, info, warn or error.  Anything else means info.
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	// Format is json (default) or console.
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// Service, when set, is attached to every entry as "service".
	Service string `mapstructure:"service" yaml:"service" json:"service"`
	// OutputPaths is ["stdout"] when nil.  A non-nil empty list is an error.
	OutputPaths      []string `mapstructure:"output_paths" yaml:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths" json:"error_output_paths"`
}

type zapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, zapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, zapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, zapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.base.Error(msg, zapFields(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.base.Fatal(msg, zapFields(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{base: l.base.With(zapFields(fields)...), level: l.level}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{base: l.base.Named(name), level: l.level}
}

// SetLevel applies to this logger and every logger derived from it.
func (l *zapLogger) SetLevel(level string) {
	l.level.SetLevel(parseLevel(level))
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LogConfig) (Logger, error) {
	outputs := cfg.OutputPaths
	if outputs == nil {
		outputs = []string{"stdout"}
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("logging: at least one output path is required")
	}
	errOutputs := cfg.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	console := strings.EqualFold(cfg.Format, FormatConsole)
	enc := zap.NewProductionEncoderConfig()
	encoding := FormatJSON
	if console {
		enc = zap.NewDevelopmentEncoderConfig()
		encoding = FormatConsole
	}
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zc := zap.Config{
		Level:            level,
		Development:      console,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	}
	if cfg.Service != "" {
		zc.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	base, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &zapLogger{base: base, level: level}, nil
}

// NewLoggerFromCore wraps core, typically a zaptest/observer core.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{
		base:  zap.New(core, zap.AddCallerSkip(1)),
		level: zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }
func (n nopLogger) Named(string) Logger  { return n }

// NewNopLogger discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type loggerHolder struct{ Logger }

var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(loggerHolder{nopLogger{}})
}

// SetDefault installs l as the process logger returned by Default.  Nil is
// ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(loggerHolder{l})
}

func Default() Logger {
	return defaultLogger.Load().(loggerHolder).Logger
}

//Personal.AI order the ending
