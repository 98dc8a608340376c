// Package logger provides a simple levelled logger for the model packages.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return ""
	}
}

// ParseLevel parses a level name as printed by String (case-sensitive).
// Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return LevelDebug
	case "WARN", "warn":
		return LevelWarn
	case "ERROR", "error":
		return LevelError
	case "NONE", "none":
		return LevelNone
	default:
		return LevelInfo
	}
}

const defaultPrefix = "gofhir-model"

// Logger provides logging functionality. Loggers derived with Named share
// their parent's level and output.
type Logger struct {
	sink   *sink
	prefix string
}

type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(os.Stderr, LevelInfo)
)

// Default returns the default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// New creates a new logger.
func New(output io.Writer, level Level) *Logger {
	return &Logger{
		sink:   &sink{level: level, output: output},
		prefix: defaultPrefix,
	}
}

// Named returns a logger whose prefix is extended with name
// (e.g. "gofhir-model/validator"). Level and output changes made through
// either logger apply to both.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		sink:   l.sink,
		prefix: l.prefix + "/" + name,
	}
}

// SetLevel sets the logging level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && l.sink.level != LevelNone
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level || l.sink.level == LevelNone {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.sink.output, "[%s] %s [%s] %s\n", timestamp, l.prefix, level.String(), msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Package-level convenience functions.

// Debug logs a debug message using the default logger.
func Debug(format string, args ...any) {
	Default().Debug(format, args...)
}

// Info logs an info message using the default logger.
func Info(format string, args ...any) {
	Default().Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...any) {
	Default().Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...any) {
	Default().Error(format, args...)
}

// SetLevel sets the level of the default logger.
func SetLevel(level Level) {
	Default().SetLevel(level)
}

// SetOutput sets the output of the default logger.
func SetOutput(w io.Writer) {
	Default().SetOutput(w)
}

// Disable disables all logging.
func Disable() {
	Default().SetLevel(LevelNone)
}
