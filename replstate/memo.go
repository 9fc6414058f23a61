package replstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	memoFile     = "memo"
	sentinelFile = "not_first_run"

	// FirstRunMarker is saved to the store once a first run happened
	FirstRunMarker = "Not the first run anymore"
)

// Memo is the on-disk state location of one interpreter. It lives inside the
// interpreter's private cache directory so distinct interpreters never share
// files.
type Memo struct {
	dir string
}

// NewMemo returns the memo rooted at an interpreter cache directory
func NewMemo(cacheDir string) *Memo {
	return &Memo{dir: cacheDir}
}

// Dir returns the cache directory
func (m *Memo) Dir() string {
	return m.dir
}

// Path is the file the generated program serializes its variables into
func (m *Memo) Path() string {
	return filepath.Join(m.dir, memoFile)
}

// SentinelPath marks that a first run has happened in this location
func (m *Memo) SentinelPath() string {
	return filepath.Join(m.dir, sentinelFile)
}

// MarkRun writes the sentinel
func (m *Memo) MarkRun() error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create memo directory: %w", err)
	}
	return os.WriteFile(m.SentinelPath(), []byte(FirstRunMarker), 0644)
}

// HasRun reports whether the sentinel exists
func (m *Memo) HasRun() bool {
	_, err := os.Stat(m.SentinelPath())
	return err == nil
}

// ReadCode returns the memo as text, "" when absent. Interpreters that
// replay earlier fragments keep them here.
func (m *Memo) ReadCode() string {
	data, err := os.ReadFile(m.Path())
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteCode replaces the memo with code
func (m *Memo) WriteCode(code string) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create memo directory: %w", err)
	}
	return os.WriteFile(m.Path(), []byte(code), 0644)
}

// Reset removes the memo and the sentinel
func (m *Memo) Reset() error {
	for _, path := range []string{m.Path(), m.SentinelPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ResetAll resets the memo of every interpreter directory under workDir
func ResetAll(workDir string) error {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := NewMemo(filepath.Join(workDir, entry.Name())).Reset(); err != nil {
			return err
		}
	}
	return nil
}
