package lua

import (
	"context"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// sandbox is a lua state whose output goes to a buffer
type sandbox struct {
	state  *lua.LState
	out    strings.Builder
	muted  bool
	exited bool
}

func newSandbox(ctx context.Context) *sandbox {
	s := &sandbox{state: lua.NewState()}
	s.state.SetContext(ctx)

	s.state.SetGlobal("print", s.state.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.write(strings.Join(parts, "\t") + "\n")
		return 0
	}))

	if io, ok := s.state.GetGlobal("io").(*lua.LTable); ok {
		s.state.SetField(io, "write", s.state.NewFunction(func(L *lua.LState) int {
			for i := 1; i <= L.GetTop(); i++ {
				s.write(L.ToStringMeta(L.Get(i)).String())
			}
			return 0
		}))
	}

	if osTable, ok := s.state.GetGlobal("os").(*lua.LTable); ok {
		s.state.SetField(osTable, "exit", s.state.NewFunction(func(L *lua.LState) int {
			s.exited = true
			L.RaiseError("%s", errExit.Error())
			return 0
		}))
	}
	return s
}

func (s *sandbox) write(text string) {
	if !s.muted {
		s.out.WriteString(text)
	}
}

// run calls proto in protected mode, discarding its return values
func (s *sandbox) run(proto *lua.FunctionProto) error {
	if proto == nil {
		return nil
	}
	s.state.Push(s.state.NewFunctionFromProto(proto))
	err := s.state.PCall(0, 0, nil)
	if s.exited {
		s.exited = false
		return errExit
	}
	return err
}

func (s *sandbox) output() string {
	return s.out.String()
}

func (s *sandbox) close() {
	s.state.Close()
}
