package golang

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniprun/errors"
	"sniprun/interpreter"
)

func TestWrap(t *testing.T) {
	t.Run("statements get a main", func(t *testing.T) {
		assert.Equal(t, "package main\n\nimport \"fmt\"\n\nfunc main() {\nfmt.Println(1)\n}\n", Wrap("fmt.Println(1)"))
	})

	t.Run("fmt is only imported when used", func(t *testing.T) {
		assert.Equal(t, "package main\n\nfunc main() {\nprintln(1)\n}\n", Wrap("println(1)"))
	})

	t.Run("whole files are kept", func(t *testing.T) {
		file := "package main\n\nfunc main() {}\n"
		assert.Equal(t, file, Wrap(file))
	})
}

func TestExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles with the go toolchain")
	}
	if _, err := exec.LookPath(defaultBinary); err != nil {
		t.Skip("go not available")
	}

	run := func(bloc string) (string, error) {
		data := interpreter.NewDataHolder()
		data.WorkDir = t.TempDir()
		data.Filetype = "go"
		data.CurrentBloc = bloc
		inter, err := New(data, interpreter.Bloc)
		require.NoError(t, err)
		return interpreter.Run(context.Background(), inter, false)
	}

	t.Run("print", func(t *testing.T) {
		out, err := run(`fmt.Println("lol", 1)`)
		require.NoError(t, err)
		assert.Equal(t, "lol 1\n", out)
	})

	t.Run("compile error", func(t *testing.T) {
		_, err := run(`undefinedThing()`)
		assert.True(t, errors.IsKind(err, errors.KindCompilation), "%v", err)
	})

	t.Run("panic is a runtime error", func(t *testing.T) {
		_, err := run(`var m map[string]int; m["x"] = 1`)
		assert.True(t, errors.IsKind(err, errors.KindRuntime), "%v", err)
	})
}
