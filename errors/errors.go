package errors

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorKind identifies what failed during a run, as seen by the caller
type ErrorKind string

const (
	KindCompilation           ErrorKind = "CompilationError"
	KindRuntime               ErrorKind = "RuntimeError"
	KindInterpreter           ErrorKind = "InterpreterError"
	KindInterpreterLimitation ErrorKind = "InterpreterLimitationError"
	KindCustom                ErrorKind = "CustomError"
)

// ErrorType represents the broad category of an error
type ErrorType string

const (
	ErrorTypeRuntime    ErrorType = "RUNTIME"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeSystem     ErrorType = "SYSTEM"
	ErrorTypeUser       ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityDebug   ErrorSeverity = "DEBUG"
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Kind        ErrorKind              `json:"kind"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Interpreter string                 `json:"interpreter,omitempty"`
	StackTrace  string                 `json:"stack_trace,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Severity    ErrorSeverity          `json:"severity"`
	Type        ErrorType              `json:"type"`
	Cause       error                  `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))
	if e.Interpreter != "" {
		builder.WriteString(fmt.Sprintf(" (%s)", e.Interpreter))
	}
	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Summary returns the line shown to the user for this error
func (e *ExecutionError) Summary() string {
	switch e.Kind {
	case KindCompilation:
		if e.Message == "" {
			return "Compilation error"
		}
		return "Compilation error: " + e.Message
	case KindRuntime:
		return "RuntimeError: " + e.Message
	case KindInterpreter:
		if e.Message == "" {
			return "Interpreter error"
		}
		return "Interpreter error: " + e.Message
	case KindInterpreterLimitation:
		return "Interpreter limitation: " + e.Message
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Kind == other.Kind && e.Code == other.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithInterpreter sets the interpreter the error originated from
func (e *ExecutionError) WithInterpreter(name string) *ExecutionError {
	e.Interpreter = name
	return e
}

// WithSeverity sets the severity level for the error
func (e *ExecutionError) WithSeverity(severity ErrorSeverity) *ExecutionError {
	e.Severity = severity
	return e
}

// WithStackTrace captures and adds stack trace information
func (e *ExecutionError) WithStackTrace() *ExecutionError {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.StackTrace = string(buf[:n])
	return e
}

// Wrap records the underlying cause
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	return e
}

func newError(kind ErrorKind, errorType ErrorType, severity ErrorSeverity, code, message string) *ExecutionError {
	return &ExecutionError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  severity,
		Type:      errorType,
		Context:   make(map[string]interface{}),
	}
}

// NewCompilationError reports user code that the toolchain refused to compile
func NewCompilationError(interpreter, message string) *ExecutionError {
	return newError(KindCompilation, ErrorTypeUser, SeverityInfo, "COMPILATION_FAILED", message).
		WithInterpreter(interpreter)
}

// NewRuntimeError reports user code that failed while running
func NewRuntimeError(interpreter, message string) *ExecutionError {
	return newError(KindRuntime, ErrorTypeRuntime, SeverityError, "RUNTIME_FAILED", message).
		WithInterpreter(interpreter)
}

// NewInterpreterError reports a host-side failure unrelated to user code
func NewInterpreterError(interpreter, message string) *ExecutionError {
	return newError(KindInterpreter, ErrorTypeSystem, SeverityError, "INTERPRETER_FAILED", message).
		WithInterpreter(interpreter)
}

// NewInterpreterLimitationError reports a request the interpreter cannot fulfil
func NewInterpreterLimitationError(interpreter, message string) *ExecutionError {
	return newError(KindInterpreterLimitation, ErrorTypeUser, SeverityWarning, "INTERPRETER_LIMITATION", message).
		WithInterpreter(interpreter)
}

// NewCustomError reports a selection or setup failure
func NewCustomError(message string) *ExecutionError {
	return newError(KindCustom, ErrorTypeValidation, SeverityWarning, "SETUP_FAILED", message)
}

// WrapError wraps an existing error into an InterpreterError
func WrapError(err error, interpreter, message string) *ExecutionError {
	return NewInterpreterError(interpreter, message).Wrap(err)
}

// AsExecutionError extracts an ExecutionError from an error chain
func AsExecutionError(err error) (*ExecutionError, bool) {
	for err != nil {
		if execErr, ok := err.(*ExecutionError); ok {
			return execErr, true
		}
		wrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = wrapper.Unwrap()
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err carries none
func KindOf(err error) ErrorKind {
	if execErr, ok := AsExecutionError(err); ok {
		return execErr.Kind
	}
	return ""
}

// IsKind reports whether err is an ExecutionError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
