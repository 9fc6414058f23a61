package repl

import (
	"strings"
)

// MultiLineBuffer collects continuation lines until the fragment is sent
type MultiLineBuffer struct {
	lines []string
}

// NewMultiLineBuffer creates a new buffer
func NewMultiLineBuffer() *MultiLineBuffer {
	return &MultiLineBuffer{lines: []string{}}
}

// AddLine adds a line to the buffer and activates it
func (b *MultiLineBuffer) AddLine(line string) {
	b.lines = append(b.lines, line)
}

// Content returns the buffer as one fragment
func (b *MultiLineBuffer) Content() string {
	return strings.Join(b.lines, "\n")
}

// Clear empties the buffer
func (b *MultiLineBuffer) Clear() {
	b.lines = []string{}
}

// IsActive reports whether a fragment is being collected
func (b *MultiLineBuffer) IsActive() bool {
	return len(b.lines) > 0
}

// Lines returns the collected lines
func (b *MultiLineBuffer) Lines() []string {
	return b.lines
}

// isContinuation reports whether line ends with a backslash, meaning more
// lines follow
func isContinuation(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.HasSuffix(trimmed, "\\")
}
