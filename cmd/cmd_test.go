package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniprun/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	runFiletype, runCode, runRange, runDisplay = "", "", "", ""
	runRepl, cleanReplOnly = false, false
	infoFiletype = ""

	dir := t.TempDir()
	t.Setenv("SNIPRUN_WORK_DIR", filepath.Join(dir, "work"))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(dir, "missing.yaml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	t.Run("fragment", func(t *testing.T) {
		out, err := execute(t, "run", "-t", "lua", "-e", `print("hi")`)
		require.NoError(t, err)
		assert.Equal(t, "hi\n", out)
	})

	t.Run("file range", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "script.lua")
		require.NoError(t, os.WriteFile(path, []byte("print(1)\nprint(2)\nprint(3)\n"), 0644))

		out, err := execute(t, "run", path, "--range", "2:3")
		require.NoError(t, err)
		assert.Equal(t, "2\n3\n", out)
	})

	t.Run("failure is displayed", func(t *testing.T) {
		out, err := execute(t, "run", "-t", "lua", "-e", `error("boom")`)
		assert.ErrorIs(t, err, errReported)
		assert.Contains(t, out, "RuntimeError")
	})

	t.Run("nothing to run", func(t *testing.T) {
		_, err := execute(t, "run", "-t", "lua")
		assert.ErrorContains(t, err, "nothing to run")
	})
}

func TestInfoCleanVersion(t *testing.T) {
	out, err := execute(t, "info", "-t", "lua")
	require.NoError(t, err)
	assert.Contains(t, out, "Current filetype (lua) selected interpreter: Lua_original, at level Bloc")
	assert.Contains(t, out, "JS_goja")

	out, err = execute(t, "clean", "--repl")
	require.NoError(t, err)
	assert.Equal(t, "REPL state cleared\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "sniprun "+Version+"\n", out)
}

func TestRunContext(t *testing.T) {
	runFiletype, runCode, runRange = "", "", ""
	runSelect = nil
	cfg := config.DefaultConfig()

	path := filepath.Join(t.TempDir(), "x.py")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\nb = 2\nprint(a + b)\n"), 0644))

	data, err := runContext(cfg, path)
	require.NoError(t, err)
	assert.Equal(t, "python", data.Filetype)
	assert.Equal(t, path, data.Filepath)
	assert.Equal(t, "a = 1", data.CurrentLine)
	assert.Equal(t, "a = 1\nb = 2\nprint(a + b)", data.CurrentBloc)
	assert.Equal(t, [2]int{-1, -1}, data.Range)

	runRange = "2"
	data, err = runContext(cfg, path)
	require.NoError(t, err)
	assert.Equal(t, "b = 2", data.CurrentBloc)
	assert.Equal(t, [2]int{2, 2}, data.Range)
	runRange = ""
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{"1:3", 1, 3, false},
		{" 2 : 2 ", 2, 2, false},
		{"4", 4, 4, false},
		{"0:1", 0, 0, true},
		{"3:2", 0, 0, true},
		{"1:9", 0, 0, true},
		{"a:b", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := parseRange(tt.in, 5)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
