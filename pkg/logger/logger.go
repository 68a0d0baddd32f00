package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var InfoLogger, FatalLogger *zap.Logger

var (
	serviceName = "default"
	nop         = zap.NewNop()
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init поднимает production-логгер с нужным уровнем ("debug", "info", ...).
// Возвращает sync для defer в main.
func Init(level string) (func(), error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return nil, fmt.Errorf("logger level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logger build: %w", err)
	}
	InfoLogger = l
	FatalLogger = l

	return func() { _ = l.Sync() }, nil
}

// Named отдаёт логгер без сдвига caller, для fxevent и прочих библиотек.
func Named(name string) *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

// до Init пишем в nop, чтобы тесты не падали
func current() *zap.Logger {
	if InfoLogger == nil {
		return nop
	}
	return InfoLogger
}

func Debug(format string, args ...interface{}) {
	current().With(
		zap.String("service", serviceName),
	).Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	current().With(
		zap.String("service", serviceName),
	).Info(msg)
}

func Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	current().With(
		zap.String("service", serviceName),
	).Warn(msg)
}

func Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	current().With(
		zap.String("service", serviceName),
	).Error(msg)
}

func Fatal(format string, args ...interface{}) {
	if FatalLogger == nil {
		panic("FatalLogger is not initialized")
	}

	msg := fmt.Sprintf(format, args...)
	FatalLogger.With(
		zap.String("service", serviceName),
	).Fatal(msg)
}
