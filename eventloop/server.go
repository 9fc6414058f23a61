// Package eventloop is the long-lived host of runs. It reads one JSON
// request per line and writes one JSON response per line; runs execute on
// their own goroutines and share one REPL state store.
package eventloop

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"sniprun/config"
	"sniprun/errors"
	"sniprun/factory"
	"sniprun/interpreter"
	"sniprun/jobmanager"
	"sniprun/launcher"
	"sniprun/logging"
	"sniprun/replstate"
)

// maxRequestSize bounds a single request line
const maxRequestSize = 16 * 1024 * 1024

// Server dispatches requests to the launcher
type Server struct {
	config   *config.Config
	registry *factory.Registry
	store    *replstate.Store
	jobs     *jobmanager.JobManager
	logger   logging.Logger

	writeMu sync.Mutex
	out     *json.Encoder
}

// NewServer creates a server writing responses to out. A nil registry
// means the default one.
func NewServer(cfg *config.Config, registry *factory.Registry, logger logging.Logger, out io.Writer) *Server {
	if registry == nil {
		registry = factory.DefaultRegistry()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Server{
		config:   cfg,
		registry: registry,
		store:    replstate.NewStore(),
		jobs:     jobmanager.NewJobManager(cfg.Engine.MaxConcurrentRuns),
		logger:   logger.WithComponent("EVENTLOOP"),
		out:      json.NewEncoder(out),
	}
}

// Store returns the REPL state shared by every run of the server
func (s *Server) Store() *replstate.Store {
	return s.store
}

// Serve handles requests until in is exhausted, then waits for the runs
// still in flight. Runs are bound to ctx.
func (s *Server) Serve(ctx context.Context, in io.Reader) error {
	drained := make(chan struct{})
	go s.watch(drained)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxRequestSize)

	for name, err := range s.registry.ValidateAllEnvironments() {
		s.logger.Warn("interpreter unavailable", logging.StringField("interpreter", name), logging.ErrorField("error", err))
	}
	s.logger.Info("listening")
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("malformed request", logging.ErrorField("error", err))
			s.respond(Response{
				Event: EventUnknown,
				Error: &ResponseError{Kind: string(errors.KindCustom), Message: fmt.Sprintf("malformed request: %v", err)},
			})
			continue
		}
		s.handle(ctx, req)
	}

	s.jobs.Shutdown()
	<-drained
	s.logger.Info("stopped")

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read requests: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, req Request) {
	s.logger.Debug("request", logging.StringField("event", req.Event))

	switch req.Event {
	case EventRun:
		s.run(ctx, req)
	case EventClean:
		data := s.config.NewDataHolder()
		if err := data.CleanDir(); err != nil {
			s.fail(req, errors.WrapError(err, "", "could not clean the work directory"))
			return
		}
		s.succeed(req, "")
	case EventClearRepl:
		s.store.Clear()
		if err := replstate.ResetAll(s.config.WorkDir); err != nil {
			s.fail(req, errors.WrapError(err, "", "could not reset REPL memos"))
			return
		}
		s.succeed(req, "")
	case EventInfo:
		s.succeed(req, launcher.New(s.dataHolder(req.Params), s.registry).Info())
	case EventPing:
		s.succeed(req, "pong")
	default:
		s.respond(Response{
			ID:    req.ID,
			Event: EventUnknown,
			Error: &ResponseError{Kind: string(errors.KindCustom), Message: fmt.Sprintf("unknown event %q", req.Event)},
		})
	}
}

// run hands the request to a worker; the response is written when the run
// finishes.
func (s *Server) run(ctx context.Context, req Request) {
	data := s.dataHolder(req.Params)
	task := func() (string, error) {
		runCtx := ctx
		if timeout := s.config.ExecutionTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		output, err := launcher.New(data, s.registry).SelectAndRun(runCtx)
		if err != nil {
			s.fail(req, err)
		} else {
			s.succeed(req, output)
		}
		return output, err
	}

	if _, err := s.jobs.Submit(data.Filetype, task); err != nil {
		s.fail(req, errors.NewCustomError(err.Error()))
	}
}

// watch logs completions until the job manager shuts down
func (s *Server) watch(drained chan<- struct{}) {
	defer close(drained)
	for n := range s.jobs.Notifications() {
		fields := []logging.LogField{
			logging.IntField("job", int(n.JobID)),
			logging.StringField("filetype", n.Label),
			logging.StringField("status", string(n.Status)),
		}
		if n.Error != nil {
			s.logger.ErrorExecution(n.Error, fields...)
		} else {
			s.logger.Debug("run finished", fields...)
		}
		s.jobs.CleanCompletedJobs(time.Minute)
	}
}

func (s *Server) dataHolder(p RunParams) *interpreter.DataHolder {
	data := s.config.NewDataHolder()
	data.Filetype = p.Filetype
	data.CurrentLine = p.CurrentLine
	data.CurrentBloc = p.CurrentBloc
	data.Filepath = p.Filepath
	data.RootDir = p.RootDir
	if p.Range != nil {
		data.Range = *p.Range
	}
	if p.SelectedInterpreters != nil {
		data.SelectedInterpreters = p.SelectedInterpreters
	}
	if p.ReplEnable != nil {
		data.ReplEnabled = p.ReplEnable
	}
	if p.ReplDisable != nil {
		data.ReplDisabled = p.ReplDisable
	}
	data.State = s.store
	data.Logger = s.logger
	return data
}

func (s *Server) succeed(req Request, output string) {
	s.respond(Response{ID: req.ID, Event: req.Event, OK: true, Output: output})
}

func (s *Server) fail(req Request, err error) {
	s.respond(Response{ID: req.ID, Event: req.Event, Error: newResponseError(err)})
}

func (s *Server) respond(resp Response) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.out.Encode(resp); err != nil {
		s.logger.Error("failed to write response", logging.ErrorField("error", err))
	}
}
