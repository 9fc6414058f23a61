package errors

import (
	"context"
)

// ErrorOption is a function that modifies an ExecutionError
type ErrorOption func(*ExecutionError)

// WithInterpreterOption sets the interpreter for the error
func WithInterpreterOption(name string) ErrorOption {
	return func(e *ExecutionError) {
		e.Interpreter = name
	}
}

// WithSeverityOption sets the severity level for the error
func WithSeverityOption(severity ErrorSeverity) ErrorOption {
	return func(e *ExecutionError) {
		e.Severity = severity
	}
}

// WithContextOption adds context information to the error
func WithContextOption(key string, value interface{}) ErrorOption {
	return func(e *ExecutionError) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

// ErrorHandler normalizes errors escaping a pipeline stage
type ErrorHandler interface {
	// Handle returns err as an ExecutionError, converting it if needed
	Handle(ctx context.Context, err error) error

	// Wrap wraps an error with additional context
	Wrap(ctx context.Context, err error, message string, options ...ErrorOption) *ExecutionError
}

// runIDKey is the context key under which the launcher stores the run id
type runIDKey struct{}

// ContextWithRunID attaches a run id that Wrap copies into error context
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// DefaultErrorHandler is the default implementation of ErrorHandler
type DefaultErrorHandler struct {
	interpreter string
}

// NewDefaultErrorHandler creates a handler attributing errors to interpreter
func NewDefaultErrorHandler(interpreter string) *DefaultErrorHandler {
	return &DefaultErrorHandler{interpreter: interpreter}
}

// Handle keeps typed errors as-is and turns anything else into an InterpreterError
func (h *DefaultErrorHandler) Handle(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if execErr, ok := AsExecutionError(err); ok {
		return execErr
	}

	return h.Wrap(ctx, err, err.Error()).WithStackTrace()
}

// Wrap wraps an error as an InterpreterError with additional context
func (h *DefaultErrorHandler) Wrap(ctx context.Context, err error, message string, options ...ErrorOption) *ExecutionError {
	if err == nil {
		return nil
	}

	execErr := WrapError(err, h.interpreter, message)
	for _, option := range options {
		option(execErr)
	}

	if ctx != nil {
		if runID, ok := ctx.Value(runIDKey{}).(string); ok && runID != "" {
			_ = execErr.WithContext("run_id", runID)
		}
	}

	return execErr
}
