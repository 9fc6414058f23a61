// Package repl is the interactive prompt of sniprun. Every submitted
// fragment is an independent run; continuity between them comes from the
// REPL mode of the selected interpreter.
package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"sniprun/config"
	"sniprun/display"
	"sniprun/factory"
	"sniprun/launcher"
	"sniprun/logging"
	"sniprun/replstate"
)

const continuePrompt = "... "

// REPL reads fragments for one filetype and runs them
type REPL struct {
	config   *config.Config
	registry *factory.Registry
	store    *replstate.Store
	logger   logging.Logger
	display  display.Options
	out      io.Writer

	filetype string
	buffer   *MultiLineBuffer
}

// New creates a prompt for filetype writing to out. A nil registry means
// the default one.
func New(cfg *config.Config, registry *factory.Registry, logger logging.Logger, filetype string, out io.Writer) *REPL {
	if registry == nil {
		registry = factory.DefaultRegistry()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &REPL{
		config:   cfg,
		registry: registry,
		store:    replstate.NewStore(),
		logger:   logger.WithComponent("REPL"),
		display: display.Options{
			Mode:  display.ParseMode(cfg.Display.Mode),
			Width: cfg.Display.Width,
		},
		out:      out,
		filetype: filetype,
		buffer:   NewMultiLineBuffer(),
	}
}

// Filetype returns the filetype fragments are run as
func (r *REPL) Filetype() string {
	return r.filetype
}

// Execute runs one fragment. The selected interpreter runs in REPL mode
// unless the configuration disables it.
func (r *REPL) Execute(ctx context.Context, code string) (string, error) {
	data := r.config.NewDataHolder()
	data.Filetype = r.filetype
	data.CurrentBloc = code
	data.CurrentLine = lastLine(code)
	data.State = r.store
	data.Logger = r.logger

	l := launcher.New(data, r.registry)
	if name, _, ok := l.Select(); ok && !contains(data.ReplDisabled, name) {
		data.ReplEnabled = append(data.ReplEnabled, name)
	}

	if timeout := r.config.ExecutionTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return l.SelectAndRun(ctx)
}

// HandleLine processes one line of input. It returns false once the user
// asked to leave.
func (r *REPL) HandleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, ":") {
		return r.command(trimmed)
	}

	if isContinuation(line) {
		r.buffer.AddLine(strings.TrimSuffix(strings.TrimRight(line, " \t\r"), "\\"))
		return true
	}

	code := line
	if r.buffer.IsActive() {
		if trimmed != "" {
			r.buffer.AddLine(line)
		}
		code = r.buffer.Content()
		r.buffer.Clear()
	}
	if strings.TrimSpace(code) == "" {
		return true
	}

	opts := r.display
	opts.Title = r.filetype
	output, err := r.Execute(ctx, code)
	if err != nil {
		r.logger.ErrorExecution(err, logging.StringField("filetype", r.filetype))
	}
	fmt.Fprint(r.out, display.Format(output, err, opts))
	return true
}

func (r *REPL) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":exit", ":quit", ":q":
		return false
	case ":help", ":h":
		r.printHelp()
	case ":lang", ":l":
		if len(fields) < 2 {
			fmt.Fprintf(r.out, "current filetype: %s\n", r.filetype)
			return true
		}
		r.filetype = fields[1]
		fmt.Fprintln(r.out, r.launcher().Selection())
	case ":info", ":i":
		fmt.Fprint(r.out, r.launcher().Info())
	case ":clearrepl":
		r.store.Clear()
		if err := replstate.ResetAll(r.config.WorkDir); err != nil {
			fmt.Fprintf(r.out, "could not reset REPL memos: %v\n", err)
			return true
		}
		fmt.Fprintln(r.out, "REPL state cleared")
	case ":clean":
		r.store.Clear()
		if err := r.config.NewDataHolder().CleanDir(); err != nil {
			fmt.Fprintf(r.out, "could not clean the work directory: %v\n", err)
			return true
		}
		fmt.Fprintln(r.out, "work directory cleaned")
	case ":buffer", ":b":
		if !r.buffer.IsActive() {
			fmt.Fprintln(r.out, "The buffer is empty")
			return true
		}
		for i, l := range r.buffer.Lines() {
			fmt.Fprintf(r.out, "%2d: %s\n", i+1, l)
		}
	case ":reset", ":rb":
		r.buffer.Clear()
	default:
		fmt.Fprintf(r.out, "unknown command %s, try :help\n", fields[0])
	}
	return true
}

func (r *REPL) launcher() *launcher.Launcher {
	data := r.config.NewDataHolder()
	data.Filetype = r.filetype
	data.Logger = r.logger
	return launcher.New(data, r.registry)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  :help, :h           - show this help")
	fmt.Fprintln(r.out, "  :lang <filetype>    - run fragments as another filetype")
	fmt.Fprintln(r.out, "  :info, :i           - show the interpreters")
	fmt.Fprintln(r.out, "  :clearrepl          - forget the REPL state")
	fmt.Fprintln(r.out, "  :clean              - clean the work directory")
	fmt.Fprintln(r.out, "  :buffer, :b         - show the pending lines")
	fmt.Fprintln(r.out, "  :reset, :rb         - drop the pending lines")
	fmt.Fprintln(r.out, "  :exit, :quit, :q    - leave")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "End a line with \\ to continue the fragment on the next line.")
}

// Run reads lines from in until EOF or :exit
func (r *REPL) Run(ctx context.Context, in io.ReadCloser) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.config.REPL.Prompt,
		HistoryFile:     r.config.REPL.HistoryFile,
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       ":exit",
		AutoComplete:    r.completer(),
		Stdin:           in,
		Stdout:          r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	r.logger.Info("started", logging.StringField("filetype", r.filetype))
	for {
		if r.buffer.IsActive() {
			rl.SetPrompt(continuePrompt)
		} else {
			rl.SetPrompt(r.config.REPL.Prompt)
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 && !r.buffer.IsActive() {
				return nil
			}
			r.buffer.Clear()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}

		if !r.HandleLine(ctx, line) {
			return nil
		}
	}
}

func (r *REPL) completer() readline.AutoCompleter {
	filetypes := func(string) []string { return r.registry.SupportedFiletypes() }
	return readline.NewPrefixCompleter(
		readline.PcItem(":help"),
		readline.PcItem(":lang", readline.PcItemDynamic(filetypes)),
		readline.PcItem(":info"),
		readline.PcItem(":clearrepl"),
		readline.PcItem(":clean"),
		readline.PcItem(":buffer"),
		readline.PcItem(":reset"),
		readline.PcItem(":exit"),
	)
}

func lastLine(code string) string {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	return lines[len(lines)-1]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
