// Package interpreter defines the capability model, the execution context and
// the four-stage pipeline every language interpreter implements.
package interpreter

import (
	"context"
)

// Interpreter drives one run of a code fragment. An instance is created per
// run, bound to a DataHolder and a level, and its stages are called in order.
type Interpreter interface {
	// Name returns the registry name, e.g. Python3_original
	Name() string

	// Level returns the level this instance was created with
	Level() SupportLevel

	// FetchCode populates the working code from the execution context
	FetchCode(ctx context.Context) error

	// AddBoilerplate wraps the code with language scaffolding
	AddBoilerplate(ctx context.Context) error

	// Build materializes the final program
	Build(ctx context.Context) error

	// Execute runs the program and returns its captured output
	Execute(ctx context.Context) (string, error)
}

// ReplLike is implemented by interpreters that can simulate state
// continuity across runs.
type ReplLike interface {
	Interpreter

	AddBoilerplateRepl(ctx context.Context) error
	ExecuteRepl(ctx context.Context) (string, error)
}

// Constructor binds a new instance to a context and level
type Constructor func(data *DataHolder, level SupportLevel) (Interpreter, error)

// Descriptor is the static capability metadata of an interpreter type
type Descriptor struct {
	Name               string
	Filetypes          []string
	MaxLevel           SupportLevel
	DefaultForFiletype bool
	HasRepl            bool
	ReplByDefault      bool
	HasStaticAnalysis  bool

	// Toolchain is the external binary the interpreter needs, "" for
	// in-process interpreters
	Toolchain string

	New Constructor
}

// Supports reports whether filetype is one of the descriptor's filetypes
func (d Descriptor) Supports(filetype string) bool {
	for _, ft := range d.Filetypes {
		if ft == filetype {
			return true
		}
	}
	return false
}

// PrimaryFiletype returns the first declared filetype
func (d Descriptor) PrimaryFiletype() string {
	if len(d.Filetypes) == 0 {
		return ""
	}
	return d.Filetypes[0]
}
