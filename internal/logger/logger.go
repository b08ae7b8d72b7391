package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Debug flag to control debug logging
	debugEnabled = false
	// The logger instance. A no-op logger until Init is called so that
	// packages used from tests never need to initialize logging.
	sugar = zap.NewNop().Sugar()
)

// Init initializes the logger. Debug mode switches to zap's development
// config (console encoder, debug level).
func Init(debug bool) error {
	debugEnabled = debug

	config := zap.NewProductionConfig()
	if debug {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	sugar = l.Sugar()

	if debugEnabled {
		Debug("Debug logging enabled")
	}
	return nil
}

// Debug logs a debug message if debug mode is enabled
func Debug(format string, v ...interface{}) {
	if debugEnabled {
		sugar.Debugf(format, v...)
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = sugar.Sync()
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}
