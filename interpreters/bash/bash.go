// Package bash runs fragments with an external bash. REPL mode replays the
// previous fragments with their output discarded before the new one.
package bash

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"sniprun/errors"
	"sniprun/interpreter"
	"sniprun/logging"
	"sniprun/replstate"
)

// Name is the registry name of the interpreter
const Name = "Bash_original"

const (
	cacheSubdir   = "bash_original"
	defaultBinary = "bash"
)

// Descriptor returns the capability metadata of Bash_original
func Descriptor() interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:               Name,
		Filetypes:          []string{"bash", "sh", "shell"},
		MaxLevel:           interpreter.Bloc,
		DefaultForFiletype: true,
		HasRepl:            true,
		ReplByDefault:      false,
		Toolchain:          defaultBinary,
		New:                New,
	}
}

// BashOriginal is one run of a shell fragment
type BashOriginal struct {
	data   *interpreter.DataHolder
	level  interpreter.SupportLevel
	logger logging.Logger

	fragment string
	code     string

	cacheDir string
	mainFile string
	memo     *replstate.Memo
}

// New binds an instance to data at level
func New(data *interpreter.DataHolder, level interpreter.SupportLevel) (interpreter.Interpreter, error) {
	cacheDir, err := data.CacheDir(cacheSubdir)
	if err != nil {
		return nil, errors.WrapError(err, Name, fmt.Sprintf("could not create cache directory: %v", err))
	}
	return &BashOriginal{
		data:     data,
		level:    level,
		logger:   data.Log().WithInterpreter(Name),
		cacheDir: cacheDir,
		mainFile: filepath.Join(cacheDir, "main.sh"),
		memo:     replstate.NewMemo(cacheDir),
	}, nil
}

func (b *BashOriginal) Name() string                    { return Name }
func (b *BashOriginal) Level() interpreter.SupportLevel { return b.level }

func (b *BashOriginal) FetchCode(ctx context.Context) error {
	b.fragment = interpreter.FetchFragment(b.data, b.level)
	b.code = b.fragment
	return nil
}

func (b *BashOriginal) AddBoilerplate(ctx context.Context) error {
	b.code = b.fragment + "\n"
	return nil
}

// AddBoilerplateRepl replays the history in a group whose output is
// discarded, then runs the fragment.
func (b *BashOriginal) AddBoilerplateRepl(ctx context.Context) error {
	history := b.history()
	if strings.TrimSpace(history) == "" {
		return b.AddBoilerplate(ctx)
	}
	b.code = "{\n" + history + "\n} >/dev/null 2>&1\n" + b.fragment + "\n"
	return nil
}

func (b *BashOriginal) Build(ctx context.Context) error {
	return interpreter.WriteEntry(Name, b.mainFile, b.code)
}

func (b *BashOriginal) Execute(ctx context.Context) (string, error) {
	return interpreter.RunProcess(ctx, Name, b.cacheDir, b.binary(), b.mainFile)
}

// ExecuteRepl runs the program and appends the fragment to the history
// when it succeeds
func (b *BashOriginal) ExecuteRepl(ctx context.Context) (string, error) {
	out, err := b.Execute(ctx)
	if err != nil {
		return out, err
	}
	if strings.TrimSpace(b.fragment) != "" {
		history := b.history()
		if history != "" {
			history += "\n"
		}
		history += b.fragment
		b.data.Store().Save(Name, history)
		if err := b.memo.WriteCode(history); err != nil {
			b.logger.Warn("could not persist history", logging.ErrorField("error", err))
		}
	}
	return out, nil
}

func (b *BashOriginal) history() string {
	if history := b.data.Store().ReadPrevious(Name); history != "" {
		return history
	}
	return b.memo.ReadCode()
}

func (b *BashOriginal) binary() string {
	if bin := b.data.InterpreterOption(Name, "interpreter"); bin != "" {
		return bin
	}
	return defaultBinary
}
