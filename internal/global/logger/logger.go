package logger

import (
	"sync/atomic"

	"gitlab.com/nqueens.net/internal/adapter/logging"
)

var current atomic.Pointer[logging.ZapLogger]

func init() {
	current.Store(logging.NewZapLogger())
}

// Logger returns the process-wide logger
func Logger() *logging.ZapLogger {
	return current.Load()
}

// SetLogger replaces the process-wide logger, e.g. after --verbose is parsed.
func SetLogger(l *logging.ZapLogger) {
	current.Store(l)
}

func Info(msg string, args ...interface{}) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger().Error(msg, args...)
}

func Debug(msg string, args ...interface{}) {
	Logger().Debug(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger().Warn(msg, args...)
}
