package logging

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"sniprun/errors"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a level, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LogField represents a key-value pair for structured logging
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       LogLevel               `json:"level"`
	Message     string                 `json:"message"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	Caller      string                 `json:"caller,omitempty"`
	Component   string                 `json:"component,omitempty"`
	Interpreter string                 `json:"interpreter,omitempty"`
	RunID       string                 `json:"run_id,omitempty"`
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)

	// ErrorExecution logs an error, expanding ExecutionError details into fields
	ErrorExecution(err error, fields ...LogField)

	// WithFields returns a new logger with the specified fields
	WithFields(fields ...LogField) Logger

	// WithComponent returns a new logger tagged with a component such as LAUNCHER
	WithComponent(component string) Logger

	// WithInterpreter returns a new logger tagged with an interpreter name
	WithInterpreter(name string) Logger

	// WithRun returns a new logger tagged with a run id
	WithRun(runID string) Logger

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// Formatter defines the interface for log formatting
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
	GetName() string
}

// Writer defines the interface for log output
type Writer interface {
	Write(data []byte) error
	Flush() error
	Close() error
	GetName() string
}

// LoggerConfig contains configuration for the logger
type LoggerConfig struct {
	Level      LogLevel
	Formatter  Formatter
	Writers    []Writer
	CallerSkip int
}

// DefaultLogger is the default implementation of Logger
type DefaultLogger struct {
	level       *levelHolder
	fields      map[string]interface{}
	component   string
	interpreter string
	runID       string
	formatter   Formatter
	writers     []Writer
	callerSkip  int
}

// levelHolder is shared by every logger derived from the same root so that
// SetLevel on the root affects children created earlier.
type levelHolder struct {
	mu    sync.RWMutex
	level LogLevel
}

// NewDefaultLogger creates a logger writing text entries to stderr
func NewDefaultLogger() *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{Level: LevelInfo})
}

// NewDefaultLoggerWithConfig creates a new default logger with configuration
func NewDefaultLoggerWithConfig(config LoggerConfig) *DefaultLogger {
	logger := &DefaultLogger{
		level:      &levelHolder{level: config.Level},
		fields:     make(map[string]interface{}),
		formatter:  config.Formatter,
		writers:    config.Writers,
		callerSkip: config.CallerSkip,
	}

	if logger.formatter == nil {
		logger.formatter = NewTextFormatter()
	}
	if logger.writers == nil {
		logger.writers = []Writer{NewConsoleWriterWithFile(os.Stderr)}
	}
	if logger.callerSkip == 0 {
		logger.callerSkip = 3
	}

	return logger
}

// NewNullLogger returns a logger that discards everything
func NewNullLogger() *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:   LevelError + 1,
		Writers: []Writer{NewNullWriter()},
	})
}

// NewFileLogger creates a logger appending text entries to path
func NewFileLogger(path string, level LogLevel) (*DefaultLogger, error) {
	writer, err := NewFileWriter(path)
	if err != nil {
		return nil, err
	}
	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:   level,
		Writers: []Writer{writer},
	}), nil
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...LogField) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...LogField) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...LogField) {
	l.log(LevelWarning, msg, fields...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...LogField) {
	l.log(LevelError, msg, fields...)
}

// ErrorExecution logs an execution error with its kind and code
func (l *DefaultLogger) ErrorExecution(err error, fields ...LogField) {
	if execErr, ok := errors.AsExecutionError(err); ok {
		errFields := append(fields,
			LogField{Key: "error_kind", Value: string(execErr.Kind)},
			LogField{Key: "error_code", Value: execErr.Code})
		if execErr.Interpreter != "" {
			errFields = append(errFields, LogField{Key: "interpreter", Value: execErr.Interpreter})
		}
		l.log(LevelError, execErr.Summary(), errFields...)
		return
	}
	l.log(LevelError, err.Error(), fields...)
}

// WithFields returns a new logger with the specified fields
func (l *DefaultLogger) WithFields(fields ...LogField) Logger {
	newLogger := l.copy()
	for _, field := range fields {
		newLogger.fields[field.Key] = field.Value
	}
	return newLogger
}

// WithComponent returns a new logger with the specified component
func (l *DefaultLogger) WithComponent(component string) Logger {
	newLogger := l.copy()
	newLogger.component = component
	return newLogger
}

// WithInterpreter returns a new logger with the specified interpreter
func (l *DefaultLogger) WithInterpreter(name string) Logger {
	newLogger := l.copy()
	newLogger.interpreter = name
	return newLogger
}

// WithRun returns a new logger with the specified run id
func (l *DefaultLogger) WithRun(runID string) Logger {
	newLogger := l.copy()
	newLogger.runID = runID
	return newLogger
}

// SetLevel sets the minimum log level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	l.level.level = level
}

// GetLevel returns the current minimum log level
func (l *DefaultLogger) GetLevel() LogLevel {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return l.level.level
}

// Close flushes and closes every writer
func (l *DefaultLogger) Close() error {
	var lastErr error
	for _, writer := range l.writers {
		if err := writer.Flush(); err != nil {
			lastErr = err
		}
		if err := writer.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields ...LogField) {
	if level < l.GetLevel() {
		return
	}

	entry := &LogEntry{
		Timestamp:   time.Now(),
		Level:       level,
		Message:     msg,
		Fields:      make(map[string]interface{}, len(l.fields)+len(fields)),
		Caller:      l.getCaller(),
		Component:   l.component,
		Interpreter: l.interpreter,
		RunID:       l.runID,
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	data, err := l.formatter.Format(entry)
	if err != nil {
		data = []byte(fmt.Sprintf("failed to format log entry: %v - original message: %s\n", err, msg))
	}

	for _, writer := range l.writers {
		if err := writer.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
		}
	}
}

func (l *DefaultLogger) copy() *DefaultLogger {
	newLogger := &DefaultLogger{
		level:       l.level,
		fields:      make(map[string]interface{}, len(l.fields)),
		component:   l.component,
		interpreter: l.interpreter,
		runID:       l.runID,
		formatter:   l.formatter,
		writers:     l.writers,
		callerSkip:  l.callerSkip,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *DefaultLogger) getCaller() string {
	_, file, line, ok := runtime.Caller(l.callerSkip)
	if !ok {
		return ""
	}
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Field creates a new field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// StringField creates a new string field
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField creates a new int field
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// BoolField creates a new bool field
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: value}
}

// ErrorField creates a new error field
func ErrorField(key string, value error) LogField {
	if value == nil {
		return LogField{Key: key, Value: nil}
	}
	return LogField{Key: key, Value: value.Error()}
}

// DurationField creates a new duration field
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}
