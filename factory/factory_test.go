package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniprun/errors"
	"sniprun/interpreter"
)

func stubDescriptor(name string, filetypes ...string) interpreter.Descriptor {
	return interpreter.Descriptor{
		Name:      name,
		Filetypes: filetypes,
		MaxLevel:  interpreter.Bloc,
		New: func(*interpreter.DataHolder, interpreter.SupportLevel) (interpreter.Interpreter, error) {
			return nil, context.Canceled
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubDescriptor("A_original", "a")))

	err := r.Register(stubDescriptor("A_original", "a"))
	assert.True(t, errors.IsKind(err, errors.KindCustom))

	assert.Error(t, r.Register(stubDescriptor("", "a")))

	noCtor := stubDescriptor("B_original", "b")
	noCtor.New = nil
	assert.Error(t, r.Register(noCtor))

	selected := stubDescriptor("C_original", "c")
	selected.MaxLevel = interpreter.Selected
	assert.Error(t, r.Register(selected))

	assert.Equal(t, []string{"A_original"}, r.Names())
}

func TestRegistry_Queries(t *testing.T) {
	r, err := NewRegistryWith(
		stubDescriptor("Z_original", "python", "py"),
		stubDescriptor("A_original", "python"),
		stubDescriptor("Lua_original", "lua"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Z_original", "A_original", "Lua_original"}, r.Names())

	matches := r.ForFiletype("python")
	require.Len(t, matches, 2)
	assert.Equal(t, "Z_original", matches[0].Name)
	assert.Equal(t, "A_original", matches[1].Name)
	assert.Empty(t, r.ForFiletype("cobol"))

	d, err := r.Lookup("Lua_original")
	require.NoError(t, err)
	assert.Equal(t, []string{"lua"}, d.Filetypes)

	_, err = r.Lookup("nope")
	assert.Error(t, err)

	assert.Equal(t, []string{"lua", "py", "python"}, r.SupportedFiletypes())
}

func TestValidateEnvironment(t *testing.T) {
	inProcess := stubDescriptor("Lua_original", "lua")
	assert.NoError(t, ValidateEnvironment(inProcess))

	missing := stubDescriptor("Ghost_original", "ghost")
	missing.Toolchain = "definitely-not-a-real-binary-sniprun"
	err := ValidateEnvironment(missing)
	assert.True(t, errors.IsKind(err, errors.KindInterpreter))

	r, err := NewRegistryWith(inProcess, missing)
	require.NoError(t, err)
	failures := r.ValidateAllEnvironments()
	assert.Len(t, failures, 1)
	assert.Contains(t, failures, "Ghost_original")
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"Python3_original", "Lua_original", "JS_goja", "Bash_original", "Go_original"}, r.Names())

	for _, ft := range []string{"python", "python3", "py", "lua", "javascript", "js", "bash", "sh", "go"} {
		assert.NotEmpty(t, r.ForFiletype(ft), ft)
	}

	for _, d := range r.Descriptors() {
		assert.True(t, d.MaxLevel > interpreter.Unsupported, d.Name)
		assert.True(t, d.MaxLevel < interpreter.Selected, d.Name)
		assert.NotNil(t, d.New, d.Name)
	}
}
