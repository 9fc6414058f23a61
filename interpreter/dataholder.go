package interpreter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sniprun/logging"
	"sniprun/replstate"
)

// DataHolder is the read-mostly snapshot of one run request
type DataHolder struct {
	Filetype    string
	CurrentLine string
	CurrentBloc string
	Filepath    string
	// Range is the inclusive, 1-based selected line range; [-1, -1] when unset
	Range [2]int

	WorkDir string
	RootDir string

	SelectedInterpreters []string
	ReplEnabled          []string
	ReplDisabled         []string
	InterpreterOptions   map[string]map[string]any

	// State survives across runs for the life of the host process
	State *replstate.Store

	RunID  string
	Logger logging.Logger
}

// DefaultWorkDir is <user cache dir>/sniprun
func DefaultWorkDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "sniprun")
}

// NewDataHolder returns an empty context rooted at the default work dir
func NewDataHolder() *DataHolder {
	return &DataHolder{
		Range:              [2]int{-1, -1},
		WorkDir:            DefaultWorkDir(),
		InterpreterOptions: make(map[string]map[string]any),
		RunID:              uuid.NewString(),
	}
}

// CleanDir removes and recreates the work dir
func (d *DataHolder) CleanDir() error {
	if d.WorkDir == "" {
		return fmt.Errorf("no work dir set")
	}
	if err := os.RemoveAll(d.WorkDir); err != nil {
		return fmt.Errorf("failed to remove work dir: %w", err)
	}
	return os.MkdirAll(d.WorkDir, 0755)
}

// CacheDir creates and returns the private directory of one interpreter
func (d *DataHolder) CacheDir(subdir string) (string, error) {
	dir := filepath.Join(d.WorkDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// InterpreterOption returns a string option for an interpreter, "" if unset
func (d *DataHolder) InterpreterOption(name, key string) string {
	opts, ok := d.InterpreterOptions[name]
	if !ok {
		return ""
	}
	v, ok := opts[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsSelected reports whether the user explicitly selected name
func (d *DataHolder) IsSelected(name string) bool {
	return contains(d.SelectedInterpreters, name)
}

// ReplWanted decides whether a run of desc uses its REPL variant
func (d *DataHolder) ReplWanted(desc Descriptor) bool {
	if !desc.HasRepl {
		return false
	}
	if contains(d.ReplEnabled, desc.Name) {
		return true
	}
	return desc.ReplByDefault && !contains(d.ReplDisabled, desc.Name)
}

// Store returns the shared state store, creating a private one if unset
func (d *DataHolder) Store() *replstate.Store {
	if d.State == nil {
		d.State = replstate.NewStore()
	}
	return d.State
}

// Log returns the run logger, never nil
func (d *DataHolder) Log() logging.Logger {
	if d.Logger == nil {
		d.Logger = logging.NewNullLogger()
	}
	return d.Logger
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
