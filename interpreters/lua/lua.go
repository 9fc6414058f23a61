// Package lua runs fragments in an embedded gopher-lua state. Output of
// print and io.write is captured; REPL mode replays earlier fragments with
// their output muted before running the new one.
package lua

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"sniprun/errors"
	"sniprun/interpreter"
	"sniprun/logging"
	"sniprun/replstate"
)

// Name is the registry name of the interpreter
const Name = "Lua_original"

const (
	cacheSubdir = "lua_original"
	chunkName   = "main.lua"
)

var errExit = stderrors.New("os.exit called")

// Descriptor returns the capability metadata of Lua_original
func Descriptor() interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:               Name,
		Filetypes:          []string{"lua"},
		MaxLevel:           interpreter.Bloc,
		DefaultForFiletype: true,
		HasRepl:            true,
		ReplByDefault:      true,
		New:                New,
	}
}

// LuaOriginal is one run of a lua fragment
type LuaOriginal struct {
	data   *interpreter.DataHolder
	level  interpreter.SupportLevel
	logger logging.Logger

	code  string
	proto *lua.FunctionProto

	mainFile string
	memo     *replstate.Memo
}

// New binds an instance to data at level
func New(data *interpreter.DataHolder, level interpreter.SupportLevel) (interpreter.Interpreter, error) {
	cacheDir, err := data.CacheDir(cacheSubdir)
	if err != nil {
		return nil, errors.WrapError(err, Name, fmt.Sprintf("could not create cache directory: %v", err))
	}
	return &LuaOriginal{
		data:     data,
		level:    level,
		logger:   data.Log().WithInterpreter(Name),
		mainFile: filepath.Join(cacheDir, chunkName),
		memo:     replstate.NewMemo(cacheDir),
	}, nil
}

func (l *LuaOriginal) Name() string                    { return Name }
func (l *LuaOriginal) Level() interpreter.SupportLevel { return l.level }

func (l *LuaOriginal) FetchCode(ctx context.Context) error {
	l.code = interpreter.FetchFragment(l.data, l.level)
	return nil
}

// AddBoilerplate has nothing to add: capture is installed on the state
func (l *LuaOriginal) AddBoilerplate(ctx context.Context) error {
	return nil
}

func (l *LuaOriginal) AddBoilerplateRepl(ctx context.Context) error {
	return l.AddBoilerplate(ctx)
}

// Build writes main.lua and compiles it
func (l *LuaOriginal) Build(ctx context.Context) error {
	if err := interpreter.WriteEntry(Name, l.mainFile, l.code); err != nil {
		return err
	}
	proto, err := compile(l.code)
	if err != nil {
		return errors.NewCompilationError(Name, strings.TrimSpace(err.Error())).Wrap(err)
	}
	l.proto = proto
	return nil
}

// Execute runs the compiled chunk in a fresh state
func (l *LuaOriginal) Execute(ctx context.Context) (string, error) {
	s := newSandbox(ctx)
	defer s.close()

	if err := s.run(l.proto); err != nil {
		return s.output(), l.convert(err)
	}
	return s.output(), nil
}

// ExecuteRepl replays the saved history muted, then runs the fragment. The
// history grows only when the fragment succeeds.
func (l *LuaOriginal) ExecuteRepl(ctx context.Context) (string, error) {
	store := l.data.Store()
	history := store.ReadPrevious(Name)
	if history == "" {
		history = l.memo.ReadCode()
	}

	s := newSandbox(ctx)
	defer s.close()

	if history != "" {
		if proto, err := compile(history); err != nil {
			l.logger.Warn("dropping unreadable history", logging.ErrorField("error", err))
			history = ""
		} else {
			s.muted = true
			if err := s.run(proto); err != nil {
				l.logger.Warn("history replay failed", logging.ErrorField("error", err))
			}
			s.muted = false
		}
	}

	if err := s.run(l.proto); err != nil {
		return s.output(), l.convert(err)
	}

	if strings.TrimSpace(l.code) != "" {
		if history != "" {
			history += "\n"
		}
		history += l.code
		store.Save(Name, history)
		if err := l.memo.WriteCode(history); err != nil {
			l.logger.Warn("could not persist history", logging.ErrorField("error", err))
		}
	}
	return s.output(), nil
}

func (l *LuaOriginal) convert(err error) error {
	if stderrors.Is(err, errExit) {
		return errors.NewInterpreterLimitationError(Name, "os.exit cannot be used from a fragment")
	}
	var apiErr *lua.ApiError
	if stderrors.As(err, &apiErr) {
		if apiErr.Type == lua.ApiErrorSyntax {
			return errors.NewCompilationError(Name, interpreter.LastNonBlankLine(apiErr.Object.String()))
		}
		return errors.NewRuntimeError(Name, interpreter.LastNonBlankLine(apiErr.Object.String())).Wrap(err)
	}
	return errors.NewRuntimeError(Name, interpreter.LastNonBlankLine(err.Error())).Wrap(err)
}

func compile(code string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(code), chunkName)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, chunkName)
}
