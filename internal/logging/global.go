package logging

import (
	"io"
	"log"
	"log/slog"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	prevDefault  *slog.Logger
	prevOutput   io.Writer
	prevFlags    int
	noopLogger   = NewNoop()
)

// Global returns the process-wide logger, or a no-op logger if InitGlobal
// has not been called.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return noopLogger
	}
	return globalLogger
}

// SetGlobal sets the global logger instance. Passing nil restores the no-op logger.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Debug logs a debug message using the global logger.
func Debug(msg string, args ...any) {
	Global().Debug(msg, args...)
}

// Info logs an info message using the global logger.
func Info(msg string, args ...any) {
	Global().Info(msg, args...)
}

// Warn logs a warning message using the global logger.
func Warn(msg string, args ...any) {
	Global().Warn(msg, args...)
}

// Error logs an error message using the global logger.
func Error(msg string, args ...any) {
	Global().Error(msg, args...)
}

// With returns a new logger with the given attributes added.
func With(args ...any) *Logger {
	return Global().With(args...)
}

// InitGlobal initializes the global logger with the given configuration.
// If config is nil, default configuration is used. The slog default logger,
// and with it the standard log package, is pointed at the same file until
// CloseGlobal so stray library output never reaches the terminal.
func InitGlobal(config *Config) error {
	l, err := New(config)
	if err != nil {
		return err
	}
	SetGlobal(l)

	globalMu.Lock()
	if prevDefault == nil {
		prevDefault = slog.Default()
		prevOutput, prevFlags = log.Writer(), log.Flags()
	}
	globalMu.Unlock()
	slog.SetDefault(l.Slog())
	return nil
}

// CloseGlobal closes the global logger and resets it to the no-op logger.
func CloseGlobal() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if prevDefault != nil {
		slog.SetDefault(prevDefault)
		log.SetOutput(prevOutput)
		log.SetFlags(prevFlags)
		prevDefault, prevOutput = nil, nil
	}
	if globalLogger == nil {
		return nil
	}
	err := globalLogger.Close()
	globalLogger = nil
	return err
}
