package interpreter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sniprun/errors"
)

const tracerName = "sniprun/interpreter"

// Run drives inter through fetch, boilerplate, build and execute. When repl
// is set and inter is ReplLike, the REPL variants of boilerplate and execute
// are used. The first failing stage ends the run; its error is returned
// typed, untyped errors becoming InterpreterError.
func Run(ctx context.Context, inter Interpreter, repl bool) (string, error) {
	replInter, ok := inter.(ReplLike)
	repl = repl && ok

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline", trace.WithAttributes(
		attribute.String("interpreter", inter.Name()),
		attribute.String("level", inter.Level().String()),
		attribute.Bool("repl", repl),
	))
	defer span.End()

	r := &runner{inter: inter, handler: errors.NewDefaultErrorHandler(inter.Name())}

	if err := r.stage(ctx, "fetch_code", inter.FetchCode); err != nil {
		return "", r.fail(span, err)
	}

	boilerplate := inter.AddBoilerplate
	execute := inter.Execute
	if repl {
		boilerplate = replInter.AddBoilerplateRepl
		execute = replInter.ExecuteRepl
	}

	if err := r.stage(ctx, "add_boilerplate", boilerplate); err != nil {
		return "", r.fail(span, err)
	}
	if err := r.stage(ctx, "build", inter.Build); err != nil {
		return "", r.fail(span, err)
	}

	var output string
	err := r.stage(ctx, "execute", func(ctx context.Context) error {
		var err error
		output, err = execute(ctx)
		return err
	})
	if err != nil {
		return "", r.fail(span, err)
	}

	span.SetAttributes(attribute.Int("output_bytes", len(output)))
	return output, nil
}

type runner struct {
	inter   Interpreter
	handler errors.ErrorHandler
}

func (r *runner) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			err = errors.NewInterpreterError(r.inter.Name(), fmt.Sprintf("panic in %s: %v", name, p)).
				WithContext("stage", name).
				WithStackTrace()
		}
		if err != nil {
			err = r.handler.Handle(ctx, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, name)
		}
	}()

	return fn(ctx)
}

func (r *runner) fail(span trace.Span, err error) error {
	span.RecordError(err)
	if execErr, ok := errors.AsExecutionError(err); ok {
		span.SetAttributes(attribute.String("error_kind", string(execErr.Kind)))
		span.SetStatus(codes.Error, execErr.Summary())
	} else {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
