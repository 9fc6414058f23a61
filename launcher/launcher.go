// Package launcher picks the interpreter for a run and drives it.
package launcher

import (
	"context"
	"fmt"
	"time"

	"sniprun/errors"
	"sniprun/factory"
	"sniprun/interpreter"
	"sniprun/logging"
)

// GenericName is the sentinel returned when no interpreter matched
const GenericName = "Generic"

// Launcher selects among the interpreters of a registry for one context
type Launcher struct {
	data     *interpreter.DataHolder
	registry *factory.Registry
	logger   logging.Logger
}

// New creates a launcher for data; a nil registry means DefaultRegistry
func New(data *interpreter.DataHolder, registry *factory.Registry) *Launcher {
	if registry == nil {
		registry = factory.DefaultRegistry()
	}
	return &Launcher{
		data:     data,
		registry: registry,
		logger:   data.Log().WithComponent("LAUNCHER").WithRun(data.RunID),
	}
}

// Select chooses one interpreter and its level. ok is false only when the
// context has no filetype; otherwise the result may be the Generic sentinel
// at Unsupported, meaning nothing matched.
//
// Matching interpreters are scanned in registry order. A richer max level
// replaces the current best. An explicitly selected interpreter wins at
// Selected and ends the scan; failing that, one declared default for the
// filetype wins at its max level and ends the scan.
func (l *Launcher) Select() (name string, level interpreter.SupportLevel, ok bool) {
	if l.data.Filetype == "" {
		return "", interpreter.Unsupported, false
	}

	name, level = GenericName, interpreter.Unsupported
	for _, desc := range l.registry.ForFiletype(l.data.Filetype) {
		if desc.MaxLevel > level {
			name, level = desc.Name, desc.MaxLevel
		}
		if l.data.IsSelected(desc.Name) {
			name, level = desc.Name, interpreter.Selected
			break
		}
		if desc.DefaultForFiletype {
			name, level = desc.Name, desc.MaxLevel
			break
		}
	}
	return name, level, true
}

// SelectAndRun selects an interpreter, binds it to the context and runs the
// pipeline, in REPL mode when the configuration asks for it.
func (l *Launcher) SelectAndRun(ctx context.Context) (string, error) {
	name, level, ok := l.Select()
	if !ok {
		return "", errors.NewCustomError("No filetype set for current file")
	}
	if name == GenericName || level == interpreter.Unsupported {
		l.logger.Warn("no interpreter", logging.StringField("filetype", l.data.Filetype))
		return "", errors.NewCustomError("could not find/run the selected interpreter")
	}

	desc, err := l.registry.Lookup(name)
	if err != nil {
		return "", err
	}

	logger := l.logger.WithInterpreter(name)
	inter, err := desc.New(l.data, level)
	if err != nil {
		logger.ErrorExecution(err)
		return "", errors.NewDefaultErrorHandler(name).Handle(ctx, err)
	}

	repl := l.data.ReplWanted(desc)
	logger.Info("run", logging.StringField("level", level.String()), logging.BoolField("repl", repl))

	start := time.Now()
	output, err := interpreter.Run(errors.ContextWithRunID(ctx, l.data.RunID), inter, repl)
	if err != nil {
		logger.ErrorExecution(err, logging.DurationField("elapsed", time.Since(start)))
		return "", err
	}
	logger.Debug("done", logging.DurationField("elapsed", time.Since(start)),
		logging.IntField("output_bytes", len(output)))
	return output, nil
}

// Selection describes the current selection for display
func (l *Launcher) Selection() string {
	name, level, ok := l.Select()
	if !ok {
		return "No filetype set for current file"
	}
	if name == GenericName {
		return fmt.Sprintf("No interpreter found for filetype '%s'", l.data.Filetype)
	}
	return fmt.Sprintf("Current filetype (%s) selected interpreter: %s, at level %s", l.data.Filetype, name, level)
}
