package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// JSONFormatter formats log entries as one JSON object per line
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.Interpreter != "" {
		output["interpreter"] = entry.Interpreter
	}
	if entry.RunID != "" {
		output["run_id"] = entry.RunID
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as single text lines:
//
//	[2006-01-02 15:04:05.000] [INFO] [LAUNCHER] message key=value
type TextFormatter struct {
	IncludeTimestamp bool
	IncludeCaller    bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    false,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}
	fmt.Fprintf(&b, "[%s] ", entry.Level.String())
	if entry.Component != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Component)
	}
	b.WriteString(entry.Message)

	if entry.Interpreter != "" {
		fmt.Fprintf(&b, " interpreter=%s", entry.Interpreter)
	}
	if entry.RunID != "" {
		fmt.Fprintf(&b, " run=%s", entry.RunID)
	}
	b.WriteString(f.formatFields(entry.Fields))
	if f.IncludeCaller && entry.Caller != "" {
		fmt.Fprintf(&b, " (%s)", entry.Caller)
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

func (f *TextFormatter) formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
