package interpreter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniprun/errors"
)

func TestSupportLevel_TotalOrder(t *testing.T) {
	levels := Levels()
	for i := range levels {
		for j := range levels {
			assert.Equal(t, i < j, levels[i] < levels[j], "%s < %s", levels[i], levels[j])
			for k := range levels {
				if levels[i] < levels[j] && levels[j] < levels[k] {
					assert.True(t, levels[i] < levels[k])
				}
			}
		}
	}
	assert.Equal(t, Unsupported, levels[0])
	assert.Equal(t, Selected, levels[len(levels)-1])
}

func TestSupportLevel_Names(t *testing.T) {
	for _, l := range Levels() {
		parsed, err := ParseSupportLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	parsed, err := ParseSupportLevel(" import ")
	require.NoError(t, err)
	assert.Equal(t, Import, parsed)

	_, err = ParseSupportLevel("everything")
	assert.Error(t, err)
	assert.Equal(t, "SupportLevel(42)", SupportLevel(42).String())
}

func TestFetchFragment(t *testing.T) {
	data := &DataHolder{CurrentLine: "print(1)", CurrentBloc: "print(2)\nprint(3)"}

	assert.Equal(t, "print(2)\nprint(3)", FetchFragment(data, Bloc))
	assert.Equal(t, "print(2)\nprint(3)", FetchFragment(data, Import))
	assert.Equal(t, "print(1)", FetchFragment(data, Line))
	assert.Equal(t, "", FetchFragment(data, Unsupported))

	t.Run("blank block falls back to line", func(t *testing.T) {
		data := &DataHolder{CurrentLine: "x = 1", CurrentBloc: " \n\t"}
		assert.Equal(t, "x = 1", FetchFragment(data, Bloc))
	})

	t.Run("nothing to run is not an error", func(t *testing.T) {
		assert.Equal(t, "", FetchFragment(&DataHolder{CurrentLine: "   "}, File))
	})
}

func TestUnindent(t *testing.T) {
	code := "    if x:\n        print(x)\n    print(2)"
	assert.Equal(t, "\nif x:\n    print(x)\nprint(2)", Unindent(code))
	assert.Equal(t, "\nprint(1)", Unindent("print(1)"))
}

func TestLastNonBlankLine(t *testing.T) {
	stderr := "Traceback (most recent call last):\n  File \"main.py\", line 1\nNameError: name 'x' is not defined\n\n"
	assert.Equal(t, "NameError: name 'x' is not defined", LastNonBlankLine(stderr))
	assert.Equal(t, "only", LastNonBlankLine("only"))
	assert.Equal(t, "\n  \n", LastNonBlankLine("\n  \n"))
	assert.Equal(t, "", LastNonBlankLine(""))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// expiredContext reports a passed deadline but never signals Done, so the
// process runs to completion before the deadline is seen.
type expiredContext struct {
	context.Context
}

func (expiredContext) Err() error { return context.DeadlineExceeded }

func TestRunProcess(t *testing.T) {
	requireShell(t)
	ctx := context.Background()

	t.Run("stdout is returned verbatim", func(t *testing.T) {
		out, err := RunProcess(ctx, "test", "", "sh", "-c", "printf 'a\\nb\\n'")
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", out)
	})

	t.Run("non-zero exit yields last stderr line", func(t *testing.T) {
		_, err := RunProcess(ctx, "test", "", "sh", "-c", "echo first >&2; echo second >&2; echo >&2; exit 3")
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.KindRuntime, execErr.Kind)
		assert.Equal(t, "second", execErr.Message)
		assert.Equal(t, 3, execErr.Context["exit_code"])
	})

	t.Run("blank stderr is kept whole", func(t *testing.T) {
		_, err := RunProcess(ctx, "test", "", "sh", "-c", "printf '\\n \\n' >&2; exit 1")
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, "\n \n", execErr.Message)
	})

	t.Run("missing binary is an interpreter error", func(t *testing.T) {
		_, err := RunProcess(ctx, "test", "", "definitely-not-a-real-binary-sniprun")
		assert.True(t, errors.IsKind(err, errors.KindInterpreter))
	})

	t.Run("clean exit at the deadline keeps its output", func(t *testing.T) {
		out, err := RunProcess(expiredContext{context.Background()}, "test", "", "sh", "-c", "echo done")
		require.NoError(t, err)
		assert.Equal(t, "done\n", out)
	})

	t.Run("killed process is stopped", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err := RunProcess(ctx, "test", "", "sh", "-c", "exec sleep 5")
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.KindRuntime, execErr.Kind)
		assert.True(t, strings.HasPrefix(execErr.Message, "execution stopped"), execErr.Message)
	})

	t.Run("runs in dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("here"), 0644))
		out, err := RunProcess(ctx, "test", dir, "sh", "-c", "cat marker")
		require.NoError(t, err)
		assert.Equal(t, "here", out)
	})
}

func TestWriteEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "main.py")
	require.NoError(t, WriteEntry("test", path, "print(1)"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(data))

	t.Run("io failure carries the reason", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		err := WriteEntry("test", filepath.Join(blocker, "main.py"), "x")
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.KindInterpreter, execErr.Kind)
		assert.Contains(t, execErr.Message, blocker)
		assert.NotNil(t, execErr.Cause)
	})
}

func TestDataHolder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		data := NewDataHolder()
		assert.Equal(t, [2]int{-1, -1}, data.Range)
		assert.Equal(t, "sniprun", filepath.Base(data.WorkDir))
		assert.NotEmpty(t, data.RunID)
		assert.NotNil(t, data.Log())
		assert.Same(t, data.Store(), data.Store())
	})

	t.Run("repl decision", func(t *testing.T) {
		byDefault := Descriptor{Name: "Lua_original", HasRepl: true, ReplByDefault: true}
		optIn := Descriptor{Name: "Python3_original", HasRepl: true}
		none := Descriptor{Name: "JS_goja", ReplByDefault: true}

		data := &DataHolder{}
		assert.True(t, data.ReplWanted(byDefault))
		assert.False(t, data.ReplWanted(optIn))
		assert.False(t, data.ReplWanted(none))

		data.ReplEnabled = []string{"Python3_original", "JS_goja"}
		data.ReplDisabled = []string{"Lua_original"}
		assert.False(t, data.ReplWanted(byDefault))
		assert.True(t, data.ReplWanted(optIn))
		assert.False(t, data.ReplWanted(none))
	})

	t.Run("options", func(t *testing.T) {
		data := &DataHolder{InterpreterOptions: map[string]map[string]any{
			"Python3_original": {"interpreter": "python3.12", "depth": 3},
		}}
		assert.Equal(t, "python3.12", data.InterpreterOption("Python3_original", "interpreter"))
		assert.Equal(t, "3", data.InterpreterOption("Python3_original", "depth"))
		assert.Equal(t, "", data.InterpreterOption("Python3_original", "missing"))
		assert.Equal(t, "", data.InterpreterOption("Lua_original", "interpreter"))
	})

	t.Run("cache and clean", func(t *testing.T) {
		data := &DataHolder{WorkDir: filepath.Join(t.TempDir(), "work")}
		dir, err := data.CacheDir("lua_original")
		require.NoError(t, err)
		require.DirExists(t, dir)

		require.NoError(t, data.CleanDir())
		assert.DirExists(t, data.WorkDir)
		assert.NoDirExists(t, dir)

		assert.Error(t, (&DataHolder{}).CleanDir())
	})

	t.Run("descriptor filetypes", func(t *testing.T) {
		d := Descriptor{Filetypes: []string{"python", "py"}}
		assert.True(t, d.Supports("py"))
		assert.False(t, d.Supports("Py"))
		assert.Equal(t, "python", d.PrimaryFiletype())
		assert.Equal(t, "", Descriptor{}.PrimaryFiletype())
	})
}
