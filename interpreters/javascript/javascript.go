// Package javascript runs fragments in an embedded goja VM. Output is
// collected by boilerplate-defined print and console functions into an array
// read back after the run.
package javascript

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"

	"sniprun/errors"
	"sniprun/interpreter"
)

// Name is the registry name of the interpreter
const Name = "JS_goja"

const (
	cacheSubdir = "js_goja"
	entryName   = "main.js"
	captureVar  = "__sniprun_out"
)

const prelude = `var ` + captureVar + ` = [];
function print() {
  ` + captureVar + `.push(Array.prototype.map.call(arguments, String).join(" ") + "\n");
}
var console = { log: print, info: print, warn: print, error: print, debug: print };
`

// Descriptor returns the capability metadata of JS_goja
func Descriptor() interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:               Name,
		Filetypes:          []string{"javascript", "js"},
		MaxLevel:           interpreter.Bloc,
		DefaultForFiletype: true,
		New:                New,
	}
}

// JSGoja is one run of a javascript fragment
type JSGoja struct {
	data  *interpreter.DataHolder
	level interpreter.SupportLevel

	code    string
	program *goja.Program

	mainFile string
}

// New binds an instance to data at level
func New(data *interpreter.DataHolder, level interpreter.SupportLevel) (interpreter.Interpreter, error) {
	cacheDir, err := data.CacheDir(cacheSubdir)
	if err != nil {
		return nil, errors.WrapError(err, Name, fmt.Sprintf("could not create cache directory: %v", err))
	}
	return &JSGoja{
		data:     data,
		level:    level,
		mainFile: filepath.Join(cacheDir, entryName),
	}, nil
}

func (j *JSGoja) Name() string                    { return Name }
func (j *JSGoja) Level() interpreter.SupportLevel { return j.level }

func (j *JSGoja) FetchCode(ctx context.Context) error {
	j.code = interpreter.FetchFragment(j.data, j.level)
	return nil
}

// AddBoilerplate prepends the output capture
func (j *JSGoja) AddBoilerplate(ctx context.Context) error {
	if !strings.HasPrefix(j.code, prelude) {
		j.code = prelude + j.code
	}
	return nil
}

// Build writes main.js and compiles it
func (j *JSGoja) Build(ctx context.Context) error {
	if err := interpreter.WriteEntry(Name, j.mainFile, j.code); err != nil {
		return err
	}
	program, err := goja.Compile(entryName, j.code, false)
	if err != nil {
		return errors.NewCompilationError(Name, interpreter.LastNonBlankLine(err.Error())).Wrap(err)
	}
	j.program = program
	return nil
}

// Execute runs the program in a fresh VM and reads the capture back
func (j *JSGoja) Execute(ctx context.Context) (output string, err error) {
	vm := goja.New()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution cancelled")
		case <-done:
		}
	}()

	if _, err := vm.RunProgram(j.program); err != nil {
		var interrupted *goja.InterruptedError
		if stderrors.As(err, &interrupted) {
			return "", errors.NewRuntimeError(Name, fmt.Sprintf("execution interrupted: %v", interrupted.Value()))
		}
		var exception *goja.Exception
		if stderrors.As(err, &exception) {
			return "", errors.NewRuntimeError(Name, interpreter.LastNonBlankLine(exception.Value().String())).Wrap(err)
		}
		return "", errors.NewRuntimeError(Name, interpreter.LastNonBlankLine(err.Error())).Wrap(err)
	}

	defer func() {
		if p := recover(); p != nil {
			output, err = "", errors.NewInterpreterError(Name, fmt.Sprintf("could not read captured output: %v", p))
		}
	}()
	return readCapture(vm)
}

func readCapture(vm *goja.Runtime) (string, error) {
	value := vm.Get(captureVar)
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return "", errors.NewInterpreterLimitationError(Name, captureVar+" was deleted by the fragment, output is lost")
	}
	items, ok := value.Export().([]interface{})
	if !ok {
		return "", errors.NewInterpreterLimitationError(Name, captureVar+" was overwritten by the fragment, output is lost")
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprint(item))
	}
	return b.String(), nil
}
