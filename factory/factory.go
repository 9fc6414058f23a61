package factory

import (
	"fmt"
	"os/exec"
	"sort"
	"sync"

	"sniprun/errors"
	"sniprun/interpreter"
	"sniprun/interpreters/bash"
	"sniprun/interpreters/golang"
	"sniprun/interpreters/javascript"
	"sniprun/interpreters/lua"
	"sniprun/interpreters/python"
)

// Registry is the closed, ordered set of interpreter types. Selection scans it
// in registration order.
type Registry struct {
	descriptors []interpreter.Descriptor
	index       map[string]int
	mutex       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// NewRegistryWith creates a registry holding descs in order
func NewRegistryWith(descs ...interpreter.Descriptor) (*Registry, error) {
	r := NewRegistry()
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a descriptor
func (r *Registry) Register(desc interpreter.Descriptor) error {
	if desc.Name == "" {
		return errors.NewCustomError("interpreter name cannot be empty")
	}
	if desc.New == nil {
		return errors.NewCustomError(fmt.Sprintf("interpreter '%s' has no constructor", desc.Name))
	}
	if desc.MaxLevel > interpreter.Import {
		return errors.NewCustomError(fmt.Sprintf("interpreter '%s' cannot declare %s as its max level", desc.Name, desc.MaxLevel))
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.index[desc.Name]; exists {
		return errors.NewCustomError(fmt.Sprintf("interpreter '%s' is already registered", desc.Name))
	}

	r.index[desc.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, desc)
	return nil
}

// Descriptors returns every descriptor in registration order
func (r *Registry) Descriptors() []interpreter.Descriptor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]interpreter.Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns a descriptor by interpreter name
func (r *Registry) Lookup(name string) (interpreter.Descriptor, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	i, exists := r.index[name]
	if !exists {
		return interpreter.Descriptor{}, errors.NewCustomError(fmt.Sprintf("interpreter '%s' is not registered", name))
	}
	return r.descriptors[i], nil
}

// ForFiletype returns, in order, the descriptors supporting filetype
func (r *Registry) ForFiletype(filetype string) []interpreter.Descriptor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []interpreter.Descriptor
	for _, d := range r.descriptors {
		if d.Supports(filetype) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the interpreter names in registration order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}
	return names
}

// SupportedFiletypes returns every filetype any interpreter supports, sorted
func (r *Registry) SupportedFiletypes() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	seen := make(map[string]bool)
	for _, d := range r.descriptors {
		for _, ft := range d.Filetypes {
			seen[ft] = true
		}
	}

	result := make([]string, 0, len(seen))
	for ft := range seen {
		result = append(result, ft)
	}
	sort.Strings(result)
	return result
}

// ValidateEnvironment checks that the toolchain of desc is on PATH
func ValidateEnvironment(desc interpreter.Descriptor) error {
	if desc.Toolchain == "" {
		return nil
	}
	if _, err := exec.LookPath(desc.Toolchain); err != nil {
		return errors.WrapError(err, desc.Name, fmt.Sprintf("%s not found in PATH", desc.Toolchain))
	}
	return nil
}

// ValidateAllEnvironments validates every registered interpreter
func (r *Registry) ValidateAllEnvironments() map[string]error {
	result := make(map[string]error)
	for _, d := range r.Descriptors() {
		if err := ValidateEnvironment(d); err != nil {
			result[d.Name] = err
		}
	}
	return result
}

// DefaultRegistry holds the built-in interpreters
func DefaultRegistry() *Registry {
	registry, err := NewRegistryWith(
		python.Descriptor(),
		lua.Descriptor(),
		javascript.Descriptor(),
		bash.Descriptor(),
		golang.Descriptor(),
	)
	if err != nil {
		panic(err)
	}
	return registry
}
