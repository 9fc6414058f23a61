package interpreter

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lithammer/dedent"

	"sniprun/errors"
)

// FetchFragment picks the code a level allows: the block from Bloc up when it
// is not blank, else the line from Line up when it is not blank, else "".
func FetchFragment(data *DataHolder, level SupportLevel) string {
	if level.AtLeast(Bloc) && strings.TrimSpace(data.CurrentBloc) != "" {
		return data.CurrentBloc
	}
	if level.AtLeast(Line) && strings.TrimSpace(data.CurrentLine) != "" {
		return data.CurrentLine
	}
	return ""
}

// Unindent moves code to column zero. A newline is prepended so the first
// line takes part in the common-margin computation like every other line.
func Unindent(code string) string {
	return dedent.Dedent("\n" + code)
}

// LastNonBlankLine returns the last line of text holding non-space
// characters, or text itself when there is none.
func LastNonBlankLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimRight(lines[i], "\r"); strings.TrimSpace(line) != "" {
			return line
		}
	}
	return text
}

// ProcessResult is the fully captured outcome of one external process
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunProcess runs name with args in dir and captures both streams. A non-zero
// exit is a RuntimeError carrying the last non-blank stderr line; a process
// that cannot be started is an InterpreterError. Cancelling ctx kills it; a
// process that exited cleanly keeps its output.
func RunProcess(ctx context.Context, owner, dir, name string, args ...string) (string, error) {
	res, err := StartProcess(ctx, dir, name, args...)
	if err != nil {
		return "", errors.WrapError(err, owner, fmt.Sprintf("failed to start %s", name))
	}
	if res.ExitCode != 0 {
		if ctx.Err() != nil {
			return "", errors.NewRuntimeError(owner, fmt.Sprintf("execution stopped: %v", ctx.Err()))
		}
		return "", errors.NewRuntimeError(owner, LastNonBlankLine(res.Stderr)).
			WithContext("exit_code", res.ExitCode)
	}
	return res.Stdout, nil
}

// StartProcess runs a process and reports its exit code instead of failing
// on a non-zero status. The error is only set when the process did not run.
func StartProcess(ctx context.Context, dir, name string, args ...string) (*ProcessResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &ProcessResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, err
	}
	return res, nil
}

// WriteEntry writes the generated program of the build stage
func WriteEntry(owner, path, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapError(err, owner, fmt.Sprintf("failed to create %s: %v", filepath.Dir(path), err))
	}
	if err := os.WriteFile(path, []byte(code), 0644); err != nil {
		return errors.WrapError(err, owner, fmt.Sprintf("failed to write %s: %v", path, err))
	}
	return nil
}
