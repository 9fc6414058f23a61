// Package golang compiles fragments with the go toolchain. A fragment that is
// not a whole file is wrapped into a main function.
package golang

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"sniprun/errors"
	"sniprun/interpreter"
)

// Name is the registry name of the interpreter
const Name = "Go_original"

const (
	cacheSubdir   = "go_original"
	defaultBinary = "go"
)

var packageClause = regexp.MustCompile(`(?m)^\s*package\s+\w+`)

// Descriptor returns the capability metadata of Go_original
func Descriptor() interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:               Name,
		Filetypes:          []string{"go"},
		MaxLevel:           interpreter.Bloc,
		DefaultForFiletype: true,
		Toolchain:          defaultBinary,
		New:                New,
	}
}

// GoOriginal is one run of a go fragment
type GoOriginal struct {
	data  *interpreter.DataHolder
	level interpreter.SupportLevel

	code string

	cacheDir   string
	mainFile   string
	binaryPath string
}

// New binds an instance to data at level
func New(data *interpreter.DataHolder, level interpreter.SupportLevel) (interpreter.Interpreter, error) {
	cacheDir, err := data.CacheDir(cacheSubdir)
	if err != nil {
		return nil, errors.WrapError(err, Name, fmt.Sprintf("could not create cache directory: %v", err))
	}
	return &GoOriginal{
		data:       data,
		level:      level,
		cacheDir:   cacheDir,
		mainFile:   filepath.Join(cacheDir, "main.go"),
		binaryPath: filepath.Join(cacheDir, "main"),
	}, nil
}

func (g *GoOriginal) Name() string                    { return Name }
func (g *GoOriginal) Level() interpreter.SupportLevel { return g.level }

func (g *GoOriginal) FetchCode(ctx context.Context) error {
	g.code = interpreter.FetchFragment(g.data, g.level)
	return nil
}

func (g *GoOriginal) AddBoilerplate(ctx context.Context) error {
	g.code = Wrap(g.code)
	return nil
}

// Wrap turns a statement list into a main package. Code that already has a
// package clause is returned unchanged.
func Wrap(code string) string {
	if packageClause.MatchString(code) {
		return code
	}

	var b strings.Builder
	b.WriteString("package main\n\n")
	if strings.Contains(code, "fmt.") {
		b.WriteString("import \"fmt\"\n\n")
	}
	b.WriteString("func main() {\n")
	b.WriteString(code)
	b.WriteString("\n}\n")
	return b.String()
}

// Build writes main.go and compiles it; a refused compilation is reported
// with the last line of the compiler output.
func (g *GoOriginal) Build(ctx context.Context) error {
	if err := interpreter.WriteEntry(Name, g.mainFile, g.code); err != nil {
		return err
	}

	res, err := interpreter.StartProcess(ctx, g.cacheDir, g.toolchain(), "build", "-o", g.binaryPath, g.mainFile)
	if err != nil {
		return errors.WrapError(err, Name, fmt.Sprintf("failed to start %s", g.toolchain()))
	}
	if res.ExitCode != 0 {
		return errors.NewCompilationError(Name, interpreter.LastNonBlankLine(res.Stderr))
	}
	return nil
}

func (g *GoOriginal) Execute(ctx context.Context) (string, error) {
	return interpreter.RunProcess(ctx, Name, g.cacheDir, g.binaryPath)
}

func (g *GoOriginal) toolchain() string {
	if bin := g.data.InterpreterOption(Name, "compiler"); bin != "" {
		return bin
	}
	return defaultBinary
}
