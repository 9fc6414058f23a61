// Package python runs fragments with an external python3, re-injecting the
// imports of the surrounding file and optionally persisting variables
// between runs through a pickle memo.
package python

import (
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"sniprun/errors"
	"sniprun/interpreter"
	"sniprun/logging"
	"sniprun/replstate"
)

// Name is the registry name of the interpreter
const Name = "Python3_original"

const (
	cacheSubdir   = "python3_original"
	defaultBinary = "python3"
)

//go:embed saveload.py
var saveLoad string

// Descriptor returns the capability metadata of Python3_original
func Descriptor() interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:               Name,
		Filetypes:          []string{"Python 3", "python", "python3", "py"},
		MaxLevel:           interpreter.Import,
		DefaultForFiletype: true,
		HasRepl:            true,
		ReplByDefault:      false,
		HasStaticAnalysis:  false,
		Toolchain:          defaultBinary,
		New:                New,
	}
}

// Python3Original is one run of a python fragment
type Python3Original struct {
	data   *interpreter.DataHolder
	level  interpreter.SupportLevel
	logger logging.Logger

	fragment string
	imports  []string
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
	return &Python3Original{
		data:     data,
		level:    level,
		logger:   data.Log().WithInterpreter(Name),
		cacheDir: cacheDir,
		mainFile: filepath.Join(cacheDir, "main.py"),
		memo:     replstate.NewMemo(cacheDir),
	}, nil
}

func (p *Python3Original) Name() string                    { return Name }
func (p *Python3Original) Level() interpreter.SupportLevel { return p.level }

// Code returns the program as built so far
func (p *Python3Original) Code() string { return p.code }

// MainFile returns the path of the generated program
func (p *Python3Original) MainFile() string { return p.mainFile }

// FetchCode selects the fragment and, from Import level up, the imports of
// the file it comes from that the fragment uses.
func (p *Python3Original) FetchCode(ctx context.Context) error {
	p.fragment = interpreter.FetchFragment(p.data, p.level)
	p.imports = nil

	if p.level.AtLeast(interpreter.Import) {
		imports, err := FetchImports(p.data.Filepath, p.fragment)
		if err != nil {
			p.logger.Debug("import discovery skipped", logging.ErrorField("error", err))
		}
		p.imports = imports
	}
	p.code = p.fragment
	return nil
}

// AddBoilerplate prepends the guarded imports to the de-indented fragment
func (p *Python3Original) AddBoilerplate(ctx context.Context) error {
	p.code = p.importBlock() + interpreter.Unindent(p.fragment)
	return nil
}

// AddBoilerplateRepl surrounds the fragment with memo load and save calls.
// The first run in a cache location only records that it happened.
func (p *Python3Original) AddBoilerplateRepl(ctx context.Context) error {
	var b strings.Builder
	b.WriteString(p.importBlock())
	b.WriteString("\n")
	b.WriteString(saveLoad)
	b.WriteString("\n")

	memoPath := strconv.Quote(p.memo.Path())
	store := p.data.Store()
	if store.ReadPrevious(Name) == "" && !p.memo.HasRun() {
		store.Save(Name, replstate.FirstRunMarker)
		if err := p.memo.MarkRun(); err != nil {
			p.logger.Warn("could not write first run sentinel", logging.ErrorField("error", err))
		}
	} else {
		store.Save(Name, replstate.FirstRunMarker)
		fmt.Fprintf(&b, "_sniprun_load(%s)\n", memoPath)
	}

	b.WriteString(interpreter.Unindent(p.fragment))
	b.WriteString("\n")
	fmt.Fprintf(&b, "_sniprun_save(%s)\n", memoPath)

	p.code = b.String()
	return nil
}

// Build writes main.py
func (p *Python3Original) Build(ctx context.Context) error {
	return interpreter.WriteEntry(Name, p.mainFile, p.code)
}

// Execute runs main.py and returns its standard output
func (p *Python3Original) Execute(ctx context.Context) (string, error) {
	return interpreter.RunProcess(ctx, Name, p.cacheDir, p.binary(), p.mainFile)
}

// ExecuteRepl is Execute; the generated program does the persistence
func (p *Python3Original) ExecuteRepl(ctx context.Context) (string, error) {
	return p.Execute(ctx)
}

func (p *Python3Original) binary() string {
	if bin := p.data.InterpreterOption(Name, "interpreter"); bin != "" {
		return bin
	}
	return defaultBinary
}

// importBlock guards each import on its own so that one missing module
// leaves the others and the fragment running.
func (p *Python3Original) importBlock() string {
	var b strings.Builder
	for _, line := range p.imports {
		b.WriteString("try:\n    ")
		b.WriteString(strings.TrimSpace(line))
		b.WriteString("\nexcept Exception:\n    pass\n")
	}
	return b.String()
}
