package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionError_Kinds(t *testing.T) {
	t.Run("each constructor sets its kind", func(t *testing.T) {
		cases := map[ErrorKind]*ExecutionError{
			KindCompilation:           NewCompilationError("Go_original", "undefined: x"),
			KindRuntime:               NewRuntimeError("Python3_original", "NameError: name 'x' is not defined"),
			KindInterpreter:           NewInterpreterError("Lua_original", ""),
			KindInterpreterLimitation: NewInterpreterLimitationError("JS_goja", "output capture was overwritten"),
			KindCustom:                NewCustomError("No filetype set for current file"),
		}
		for kind, err := range cases {
			assert.Equal(t, kind, err.Kind)
			assert.Equal(t, kind, KindOf(err))
		}
	})

	t.Run("summary is the user facing line", func(t *testing.T) {
		assert.Equal(t, "RuntimeError: boom", NewRuntimeError("x", "boom").Summary())
		assert.Equal(t, "Compilation error", NewCompilationError("x", "").Summary())
		assert.Equal(t, "Interpreter error", NewInterpreterError("x", "").Summary())
		assert.Equal(t, "Interpreter limitation: nope", NewInterpreterLimitationError("x", "nope").Summary())
		assert.Equal(t, "no filetype", NewCustomError("no filetype").Summary())
	})

	t.Run("kind survives fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("launcher: %w", NewRuntimeError("x", "boom"))
		assert.True(t, IsKind(wrapped, KindRuntime))
		assert.False(t, IsKind(wrapped, KindCustom))

		execErr, ok := AsExecutionError(wrapped)
		require.True(t, ok)
		assert.Equal(t, "boom", execErr.Message)
	})

	t.Run("plain errors carry no kind", func(t *testing.T) {
		assert.Equal(t, ErrorKind(""), KindOf(stderrors.New("plain")))
		assert.False(t, IsKind(nil, KindRuntime))
	})

	t.Run("Is matches on kind and code", func(t *testing.T) {
		err := NewRuntimeError("a", "first")
		assert.True(t, stderrors.Is(err, NewRuntimeError("b", "second")))
		assert.False(t, stderrors.Is(err, NewCompilationError("a", "first")))
	})
}

func TestDefaultErrorHandler(t *testing.T) {
	h := NewDefaultErrorHandler("Bash_original")

	t.Run("typed errors pass through unchanged", func(t *testing.T) {
		original := NewRuntimeError("Bash_original", "exit 1")
		assert.Same(t, original, h.Handle(context.Background(), original))
	})

	t.Run("untyped errors become interpreter errors", func(t *testing.T) {
		cause := stderrors.New("disk full")
		ctx := ContextWithRunID(context.Background(), "run-1")
		err := h.Handle(ctx, cause)

		execErr, ok := AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, KindInterpreter, execErr.Kind)
		assert.Equal(t, "Bash_original", execErr.Interpreter)
		assert.Equal(t, "run-1", execErr.Context["run_id"])
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, h.Handle(context.Background(), nil))
		assert.Nil(t, h.Wrap(context.Background(), nil, "unused"))
	})

	t.Run("options are applied", func(t *testing.T) {
		err := h.Wrap(context.Background(), stderrors.New("x"), "msg",
			WithSeverityOption(SeverityFatal), WithContextOption("stage", "build"))
		assert.Equal(t, SeverityFatal, err.Severity)
		assert.Equal(t, "build", err.Context["stage"])
	})
}
