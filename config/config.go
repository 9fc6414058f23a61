// Package config holds the user configuration of sniprun and turns it into
// the execution context of a run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sniprun/interpreter"
)

// Display modes
const (
	DisplayClassic  = "classic"
	DisplayTerminal = "terminal"
)

// Config represents the application configuration
type Config struct {
	WorkDir              string                    `json:"work_dir" yaml:"work_dir"`
	SelectedInterpreters []string                  `json:"selected_interpreters" yaml:"selected_interpreters"`
	ReplEnable           []string                  `json:"repl_enable" yaml:"repl_enable"`
	ReplDisable          []string                  `json:"repl_disable" yaml:"repl_disable"`
	InterpreterOptions   map[string]map[string]any `json:"interpreter_options" yaml:"interpreter_options"`

	Display DisplayConfig `json:"display" yaml:"display"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	REPL    REPLConfig    `json:"repl" yaml:"repl"`
}

// DisplayConfig controls how results are printed
type DisplayConfig struct {
	Mode  string `json:"mode" yaml:"mode"`
	Width int    `json:"width" yaml:"width"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	// File defaults to <work_dir>/sniprun.log
	File string `json:"file" yaml:"file"`
}

// EngineConfig bounds the runs of a host process
type EngineConfig struct {
	// MaxExecutionTime is in seconds; 0 means no deadline
	MaxExecutionTime  int `json:"max_execution_time_seconds" yaml:"max_execution_time_seconds"`
	MaxConcurrentRuns int `json:"max_concurrent_runs" yaml:"max_concurrent_runs"`
}

// REPLConfig configures the interactive `sniprun repl` prompt
type REPLConfig struct {
	Prompt      string `json:"prompt" yaml:"prompt"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		WorkDir:              interpreter.DefaultWorkDir(),
		SelectedInterpreters: []string{},
		ReplEnable:           []string{},
		ReplDisable:          []string{},
		InterpreterOptions:   map[string]map[string]any{},
		Display: DisplayConfig{
			Mode:  DisplayClassic,
			Width: 80,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		REPL: REPLConfig{
			Prompt: "sniprun> ",
		},
	}
}

// Load reads a configuration file over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration, as JSON for a .json path and YAML otherwise
func Save(config *Config, path string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects values no run could honor
func (c *Config) Validate() error {
	switch c.Display.Mode {
	case DisplayClassic, DisplayTerminal:
	default:
		return fmt.Errorf("unknown display mode %q", c.Display.Mode)
	}
	if c.Engine.MaxExecutionTime < 0 {
		return fmt.Errorf("max_execution_time_seconds must not be negative")
	}
	if c.Engine.MaxConcurrentRuns < 0 {
		return fmt.Errorf("max_concurrent_runs must not be negative")
	}
	return nil
}

// Normalize expands home-relative paths and fills empty values
func (c *Config) Normalize() {
	c.WorkDir = expandHome(c.WorkDir)
	if c.WorkDir == "" {
		c.WorkDir = interpreter.DefaultWorkDir()
	}
	c.Logging.File = expandHome(c.Logging.File)
	c.REPL.HistoryFile = expandHome(c.REPL.HistoryFile)
	if c.Display.Mode == "" {
		c.Display.Mode = DisplayClassic
	}
	c.Display.Mode = strings.ToLower(c.Display.Mode)
	if c.InterpreterOptions == nil {
		c.InterpreterOptions = map[string]map[string]any{}
	}
}

// LogFile is where the CLI writes its log
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.WorkDir, "sniprun.log")
}

// ExecutionTimeout is zero when runs have no deadline
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.Engine.MaxExecutionTime) * time.Second
}

// NewDataHolder builds the configuration part of a run context. Editor
// state (filetype, fragments, path) is filled in by the caller.
func (c *Config) NewDataHolder() *interpreter.DataHolder {
	data := interpreter.NewDataHolder()
	data.WorkDir = c.WorkDir
	data.SelectedInterpreters = append([]string(nil), c.SelectedInterpreters...)
	data.ReplEnabled = append([]string(nil), c.ReplEnable...)
	data.ReplDisabled = append([]string(nil), c.ReplDisable...)
	for name, opts := range c.InterpreterOptions {
		copied := make(map[string]any, len(opts))
		for k, v := range opts {
			copied[k] = v
		}
		data.InterpreterOptions[name] = copied
	}
	return data
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
