// Package logger wraps zap with the printf-style call surface the rest of
// the conversation core uses (service name, WithField/WithError, Warn/Error).
package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zapcore.Level under the names the rest of the codebase calls
// by (Info, Warn, Error, Fatal, Debug).
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

// Config controls how the underlying zap.Logger is built.
type Config struct {
	Level      Level
	Service    string
	JSONFormat bool
	Colorized  bool
}

// DefaultConfig is development-friendly: colorized, console-encoded, info level.
func DefaultConfig() *Config {
	return &Config{Level: InfoLevel, Service: "conversation-core", JSONFormat: false, Colorized: true}
}

// ProductionConfig matches what cmd/conversation-service runs under: JSON,
// no color, info level.
func ProductionConfig() *Config {
	return &Config{Level: InfoLevel, Service: "conversation-core", JSONFormat: true, Colorized: false}
}

// DevelopmentConfig is debug-level, console-encoded.
func DevelopmentConfig() *Config {
	return &Config{Level: DebugLevel, Service: "conversation-core-dev", JSONFormat: false, Colorized: true}
}

// Logger is a thin, printf-style façade over a zap.SugaredLogger plus the
// structured *zap.Logger it was built from, so call sites that want
// zap.Field-based structured logging (Named/With) and call sites that want
// fmt.Sprintf-style logging (Info/Warn/Error) both work off one type.
type Logger struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// NewLogger builds a Logger from a Config (level, service name, JSON or
// console encoding, colorized levels) and hands back a zap-backed façade
// writing to stdout.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    levelEncoder(config.Colorized),
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoding := "console"
	if config.JSONFormat {
		encoding = "json"
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(config.Level),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	base, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Falling back to a no-op logger, which discards every entry, keeps
		// startup from failing over a logging misconfiguration.
		base = zap.NewNop()
	}
	if config.Service != "" {
		base = base.With(zap.String("service", config.Service))
	}

	return &Logger{sugar: base.Sugar(), base: base}
}

func levelEncoder(colorized bool) zapcore.LevelEncoder {
	if colorized {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.LowercaseLevelEncoder
}

// New creates a logger for the named service using DefaultConfig, switching
// to ProductionConfig's JSON encoding when the ENVIRONMENT variable is
// "production".
func New(serviceName string) *Logger {
	cfg := DefaultConfig()
	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = ProductionConfig()
	}
	cfg.Service = serviceName
	return NewLogger(cfg)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// WithField returns a new logger carrying one additional structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(key, value), base: l.base}
}

// WithFields returns a new logger carrying several additional structured
// fields at once.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{sugar: l.sugar.With(args...), base: l.base}
}

// WithError returns a new logger carrying the error under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

// Field is a key-value pair for structured logging, mirroring zap.Field's
// call-site ergonomics without exposing zapcore types to callers.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
func Error(err error) Field                   { return Field{Key: "error", Value: err.Error()} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// With attaches structured fields, zap-style.
func (l *Logger) With(fields ...Field) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return &Logger{sugar: l.sugar.With(args...), base: l.base}
}

// Named adds a component name, matching zap.Logger.Named.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.sugar.Named(name), base: l.base.Named(name)}
}

// Sugar returns the underlying *zap.SugaredLogger for callers that need
// zap's native API directly.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.base.Sync() }
