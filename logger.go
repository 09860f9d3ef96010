package fetchkit

import (
	"os"

	"github.com/charmbracelet/log"
)

// SimpleLogger is a ready-made Logger writing human-readable lines to stderr.
type SimpleLogger struct {
	logger *log.Logger
}

// NewSimpleLogger creates a console logger with timestamps and debug-level
// filtering, suitable for WithLogger or enabled in one step via
// WithSimpleLogger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.DebugLevel,
			Prefix:          "fetchkit",
		}),
	}
}

// Debug implements Logger.
func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

// Info implements Logger.
func (l *SimpleLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

// Warn implements Logger.
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// Error implements Logger.
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}
