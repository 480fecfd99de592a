package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	// With returns a child logger that adds the given fields to every entry.
	With(keysAndValues ...interface{}) Logger
}

type ZapLogger struct {
	sugar *zap.SugaredLogger
}

func New() Logger {
	return NewWithLevel("info")
}

// NewWithLevel builds a production JSON logger. Unknown levels fall back to info.
func NewWithLevel(level string) Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	base, err := zapConfig.Build(
		zap.AddCallerSkip(1), // report the service call site, not this wrapper
	)
	if err != nil {
		panic(err)
	}
	return FromZap(base)
}

// NewService tags every entry with the service name and instance id.
func NewService(level, service, instanceID string) Logger {
	log := NewWithLevel(level).With("service", service)
	if instanceID != "" {
		log = log.With("instance_id", instanceID)
	}
	return log
}

func FromZap(l *zap.Logger) Logger {
	return &ZapLogger{sugar: l.Sugar()}
}

func NewNop() Logger {
	return FromZap(zap.NewNop())
}

func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

func (l *ZapLogger) With(keysAndValues ...interface{}) Logger {
	return &ZapLogger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
