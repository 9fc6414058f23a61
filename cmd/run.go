package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sniprun/config"
	"sniprun/display"
	"sniprun/interpreter"
	"sniprun/launcher"
	"sniprun/logging"
)

var (
	runFiletype string
	runCode     string
	runRange    string
	runRepl     bool
	runSelect   []string
	runDisplay  string
)

// extensionFiletypes guesses a filetype when --filetype is not given
var extensionFiletypes = map[string]string{
	".py":   "python",
	".lua":  "lua",
	".js":   "javascript",
	".mjs":  "javascript",
	".sh":   "bash",
	".bash": "bash",
	".go":   "go",
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a file, a line range of it, or a fragment",
	Long: `Run a whole file, the lines of --range in it, or the fragment given with -e.
With --range, the first line of the range is also the current line, so an
interpreter limited to single lines runs just that line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		var path string
		if len(args) == 1 {
			path = args[0]
		}
		data, err := runContext(cfg, path)
		if err != nil {
			return err
		}
		data.Logger = logger.WithComponent("RUN")

		l := launcher.New(data, nil)
		if runRepl {
			if name, _, ok := l.Select(); ok {
				data.ReplEnabled = append(data.ReplEnabled, name)
			}
		}

		ctx := cmd.Context()
		if timeout := cfg.ExecutionTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		output, runErr := l.SelectAndRun(ctx)
		mode := cfg.Display.Mode
		if runDisplay != "" {
			mode = runDisplay
		}
		fmt.Fprint(cmd.OutOrStdout(), display.Format(output, runErr, display.Options{
			Mode:  display.ParseMode(mode),
			Width: cfg.Display.Width,
			Title: data.Filetype,
		}))
		if runErr != nil {
			logger.ErrorExecution(runErr, logging.StringField("filetype", data.Filetype))
			return errReported
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFiletype, "filetype", "t", "", "filetype of the code (default guessed from the file extension)")
	runCmd.Flags().StringVarP(&runCode, "exec", "e", "", "fragment to run instead of the file")
	runCmd.Flags().StringVarP(&runRange, "range", "r", "", "inclusive 1-based line range, as start:end")
	runCmd.Flags().BoolVar(&runRepl, "repl", false, "run the selected interpreter in REPL mode")
	runCmd.Flags().StringSliceVarP(&runSelect, "interpreter", "i", nil, "interpreters to prefer over the filetype defaults")
	runCmd.Flags().StringVar(&runDisplay, "display", "", "classic or terminal (default from config)")

	rootCmd.AddCommand(runCmd)
}

// runContext builds the execution context of `sniprun run`
func runContext(cfg *config.Config, path string) (*interpreter.DataHolder, error) {
	data := cfg.NewDataHolder()
	data.SelectedInterpreters = append(data.SelectedInterpreters, runSelect...)

	data.Filetype = runFiletype
	if data.Filetype == "" && path != "" {
		data.Filetype = extensionFiletypes[strings.ToLower(filepath.Ext(path))]
	}

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		data.Filepath = abs
		if wd, err := os.Getwd(); err == nil {
			data.RootDir = wd
		}
	}

	if runCode != "" {
		data.CurrentBloc = runCode
		data.CurrentLine = runCode
		return data, nil
	}
	if path == "" {
		return nil, fmt.Errorf("nothing to run: give a file or -e")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	start, end := 1, len(lines)
	if runRange != "" {
		start, end, err = parseRange(runRange, len(lines))
		if err != nil {
			return nil, err
		}
		data.Range = [2]int{start, end}
	}
	data.CurrentLine = lines[start-1]
	data.CurrentBloc = strings.Join(lines[start-1:end], "\n")
	return data, nil
}

// parseRange reads "a:b" or "a" against a file of n lines
func parseRange(s string, n int) (int, int, error) {
	first, last, found := strings.Cut(s, ":")
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	end := start
	if found {
		if end, err = strconv.Atoi(strings.TrimSpace(last)); err != nil {
			return 0, 0, fmt.Errorf("invalid range %q", s)
		}
	}
	if start < 1 || end < start || end > n {
		return 0, 0, fmt.Errorf("range %q is outside the file (1:%d)", s, n)
	}
	return start, end, nil
}
