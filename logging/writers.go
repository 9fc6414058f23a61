package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ConsoleWriter writes log entries to a terminal stream
type ConsoleWriter struct {
	mu     sync.Mutex
	writer *os.File
}

// NewConsoleWriterWithFile creates a new console writer with a specific file
func NewConsoleWriterWithFile(file *os.File) *ConsoleWriter {
	return &ConsoleWriter{
		writer: file,
	}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush is a no-op for terminals
func (w *ConsoleWriter) Flush() error {
	return nil
}

// Close never closes stdout/stderr as they are shared
func (w *ConsoleWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == os.Stdout || w.writer == os.Stderr {
		return nil
	}
	return w.writer.Close()
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer, creating parent directories
func NewFileWriter(filePath string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &FileWriter{
		file:     file,
		filePath: filePath,
	}, nil
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// StreamWriter adapts any io.Writer, mostly for tests
type StreamWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamWriter creates a writer forwarding to w
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write writes data to the underlying stream
func (w *StreamWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.w.Write(data)
	return err
}

// Flush is a no-op
func (w *StreamWriter) Flush() error { return nil }

// Close is a no-op
func (w *StreamWriter) Close() error { return nil }

// GetName returns the name of the writer
func (w *StreamWriter) GetName() string {
	return "stream"
}

// NullWriter discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

func (w *NullWriter) Write(data []byte) error { return nil }
func (w *NullWriter) Flush() error            { return nil }
func (w *NullWriter) Close() error            { return nil }
func (w *NullWriter) GetName() string         { return "null" }
