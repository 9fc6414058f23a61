package interpreter

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"sniprun/errors"
)

type fakeInterpreter struct {
	calls   []string
	failAt  string
	failErr error
	panicAt string
	output  string
}

func (f *fakeInterpreter) Name() string        { return "Fake_original" }
func (f *fakeInterpreter) Level() SupportLevel { return Bloc }

func (f *fakeInterpreter) step(name string) error {
	f.calls = append(f.calls, name)
	if f.panicAt == name {
		panic("boom")
	}
	if f.failAt == name {
		return f.failErr
	}
	return nil
}

func (f *fakeInterpreter) FetchCode(context.Context) error      { return f.step("fetch") }
func (f *fakeInterpreter) AddBoilerplate(context.Context) error { return f.step("boilerplate") }
func (f *fakeInterpreter) Build(context.Context) error          { return f.step("build") }
func (f *fakeInterpreter) Execute(context.Context) (string, error) {
	return f.output, f.step("execute")
}

type fakeRepl struct {
	fakeInterpreter
}

func (f *fakeRepl) AddBoilerplateRepl(context.Context) error { return f.step("boilerplate_repl") }
func (f *fakeRepl) ExecuteRepl(context.Context) (string, error) {
	return "repl:" + f.output, f.step("execute_repl")
}

func withTracer(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		assert.NoError(t, tp.Shutdown(context.Background()), "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}

func TestRun_StageOrder(t *testing.T) {
	exporter := withTracer(t)

	inter := &fakeInterpreter{output: "lol 1\n"}
	out, err := Run(context.Background(), inter, false)
	require.NoError(t, err)
	assert.Equal(t, "lol 1\n", out)
	assert.Equal(t, []string{"fetch", "boilerplate", "build", "execute"}, inter.calls)

	spans := exporter.GetSpans()
	assert.Equal(t, []string{"fetch_code", "add_boilerplate", "build", "execute", "pipeline"}, spanNames(spans))

	root := spans[len(spans)-1]
	assert.Contains(t, root.Attributes, attribute.String("interpreter", "Fake_original"))
	assert.Contains(t, root.Attributes, attribute.String("level", "Bloc"))
}

func TestRun_Repl(t *testing.T) {
	withTracer(t)

	t.Run("repl variants are used", func(t *testing.T) {
		inter := &fakeRepl{fakeInterpreter{output: "x"}}
		out, err := Run(context.Background(), inter, true)
		require.NoError(t, err)
		assert.Equal(t, "repl:x", out)
		assert.Equal(t, []string{"fetch", "boilerplate_repl", "build", "execute_repl"}, inter.calls)
	})

	t.Run("repl ignored when not supported", func(t *testing.T) {
		inter := &fakeInterpreter{output: "x"}
		out, err := Run(context.Background(), inter, true)
		require.NoError(t, err)
		assert.Equal(t, "x", out)
	})

	t.Run("repl not requested", func(t *testing.T) {
		inter := &fakeRepl{fakeInterpreter{output: "x"}}
		_, err := Run(context.Background(), inter, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"fetch", "boilerplate", "build", "execute"}, inter.calls)
	})
}

func TestRun_Failures(t *testing.T) {
	exporter := withTracer(t)

	t.Run("a failed stage stops the pipeline", func(t *testing.T) {
		exporter.Reset()
		want := errors.NewCompilationError("Fake_original", "bad")
		inter := &fakeInterpreter{failAt: "build", failErr: want}

		_, err := Run(context.Background(), inter, false)
		assert.Same(t, want, err)
		assert.Equal(t, []string{"fetch", "boilerplate", "build"}, inter.calls)

		spans := exporter.GetSpans()
		root := spans[len(spans)-1]
		assert.Equal(t, "pipeline", root.Name)
		assert.Equal(t, codes.Error, root.Status.Code)
		assert.Equal(t, "Compilation error: bad", root.Status.Description)
	})

	t.Run("untyped errors become interpreter errors", func(t *testing.T) {
		cause := stderrors.New("disk gone")
		inter := &fakeInterpreter{failAt: "fetch", failErr: cause}

		_, err := Run(context.Background(), inter, false)
		assert.True(t, errors.IsKind(err, errors.KindInterpreter))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, []string{"fetch"}, inter.calls)
	})

	t.Run("panics are contained", func(t *testing.T) {
		inter := &fakeInterpreter{panicAt: "execute"}
		_, err := Run(context.Background(), inter, false)

		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, errors.KindInterpreter, execErr.Kind)
		assert.Equal(t, "execute", execErr.Context["stage"])
		assert.Contains(t, execErr.Message, "boom")
	})

	t.Run("runtime errors propagate unchanged", func(t *testing.T) {
		want := errors.NewRuntimeError("Fake_original", "NameError")
		inter := &fakeInterpreter{failAt: "execute", failErr: want}
		_, err := Run(context.Background(), inter, false)
		assert.Same(t, want, err)
	})
}
