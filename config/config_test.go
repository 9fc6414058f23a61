package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	config, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DisplayClassic, config.Display.Mode)
	assert.Equal(t, time.Duration(0), config.ExecutionTimeout())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sniprun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
work_dir: `+dir+`
selected_interpreters: [Lua_original]
repl_enable: [Python3_original]
repl_disable: [Lua_original]
interpreter_options:
  Python3_original:
    interpreter: python3.12
display:
  mode: Terminal
logging:
  level: debug
engine:
  max_execution_time_seconds: 3
  max_concurrent_runs: 2
`), 0644))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, config.WorkDir)
	assert.Equal(t, []string{"Lua_original"}, config.SelectedInterpreters)
	assert.Equal(t, DisplayTerminal, config.Display.Mode)
	assert.Equal(t, 80, config.Display.Width)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "sniprun.log"), config.LogFile())
	assert.Equal(t, 3*time.Second, config.ExecutionTimeout())
	assert.Equal(t, 2, config.Engine.MaxConcurrentRuns)

	data := config.NewDataHolder()
	assert.Equal(t, dir, data.WorkDir)
	assert.True(t, data.IsSelected("Lua_original"))
	assert.Equal(t, []string{"Python3_original"}, data.ReplEnabled)
	assert.Equal(t, []string{"Lua_original"}, data.ReplDisabled)
	assert.Equal(t, "python3.12", data.InterpreterOption("Python3_original", "interpreter"))
	assert.Equal(t, [2]int{-1, -1}, data.Range)
	assert.NotEmpty(t, data.RunID)

	data.InterpreterOptions["Python3_original"]["interpreter"] = "other"
	assert.Equal(t, "python3.12", config.InterpreterOptions["Python3_original"]["interpreter"])
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("display: ["), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	mode := filepath.Join(dir, "mode.yaml")
	require.NoError(t, os.WriteFile(mode, []byte("display:\n  mode: fancy\n"), 0644))
	_, err = Load(mode)
	assert.ErrorContains(t, err, "unknown display mode")

	negative := filepath.Join(dir, "negative.json")
	require.NoError(t, os.WriteFile(negative, []byte(`{"engine": {"max_concurrent_runs": -1}}`), 0644))
	_, err = Load(negative)
	assert.ErrorContains(t, err, "max_concurrent_runs")
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.WorkDir = dir
	config.SelectedInterpreters = []string{"JS_goja"}
	config.Logging.File = filepath.Join(dir, "custom.log")

	for _, name := range []string{"nested/sniprun.yaml", "sniprun.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(config, path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, config.SelectedInterpreters, loaded.SelectedInterpreters)
			assert.Equal(t, config.LogFile(), loaded.LogFile())
			assert.Equal(t, config.REPL.Prompt, loaded.REPL.Prompt)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x/y"), expandHome("~/x/y"))
	assert.Equal(t, "/abs", expandHome("/abs"))
}
