package logger

import (
	"log"
	"os"
	"sync/atomic"
)

var (
	debugEnabled atomic.Bool
	stdLogger    *log.Logger
	debugLogger  *log.Logger
)

func init() {
	stdLogger = log.New(os.Stderr, "", 0)
	debugLogger = log.New(os.Stderr, "[DEBUG] ", 0)
}

// SetDebug enables or disables debug logging.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Info logs an informational message.
func Info(format string, args ...interface{}) {
	stdLogger.Printf(format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	stdLogger.Printf(format, args...)
}

// Debug logs a debug message if debug logging is enabled.
func Debug(format string, args ...interface{}) {
	if debugEnabled.Load() {
		debugLogger.Printf(format, args...)
	}
}

// Fatal logs an error message and exits with status 1.
func Fatal(format string, args ...interface{}) {
	stdLogger.Printf(format, args...)
	os.Exit(1)
}
