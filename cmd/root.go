package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sniprun/config"
	"sniprun/logging"
)

// Version is the sniprun release
const Version = "1.3.0"

var cfgFile string

// errReported is returned once the failure has already been shown
var errReported = errors.New("run failed")

// envKeys can be overridden with SNIPRUN_<KEY>, dots becoming underscores
var envKeys = []string{
	"work_dir",
	"display.mode",
	"display.width",
	"logging.level",
	"logging.file",
	"engine.max_execution_time_seconds",
	"engine.max_concurrent_runs",
}

var rootCmd = &cobra.Command{
	Use:   "sniprun",
	Short: "Run fragments of code from an editor",
	Long: `sniprun runs a line, a block or a whole file of source code out of
process and prints what it wrote. The interpreter is picked from the
filetype; some interpreters keep their state between runs (REPL mode).

Getting started:
  sniprun run script.py                Run a whole file
  sniprun run -t lua -e 'print(1)'     Run a fragment
  sniprun run script.py -r 3:7         Run lines 3 to 7
  sniprun info                         List the interpreters
  sniprun repl python                  Interactive prompt
  sniprun serve                        JSON lines on stdin/stdout`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("sniprun %s\n", Version))
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sniprun/sniprun.yaml)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, err)
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// initConfig locates the config file and binds the environment
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sniprun"))
		}
		viper.SetConfigName("sniprun")
	}

	viper.SetEnvPrefix("sniprun")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
	viper.AutomaticEnv()

	// a missing config file means defaults
	_ = viper.ReadInConfig()
}

// loadConfig reads the discovered file over the defaults, then applies the
// environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, err
	}
	applySettings(cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySettings copies the values viper resolved for envKeys, which the
// environment may override
func applySettings(cfg *config.Config) {
	if viper.IsSet("work_dir") {
		cfg.WorkDir = viper.GetString("work_dir")
	}
	if viper.IsSet("display.mode") {
		cfg.Display.Mode = viper.GetString("display.mode")
	}
	if viper.IsSet("display.width") {
		cfg.Display.Width = viper.GetInt("display.width")
	}
	if viper.IsSet("logging.level") {
		cfg.Logging.Level = viper.GetString("logging.level")
	}
	if viper.IsSet("logging.file") {
		cfg.Logging.File = viper.GetString("logging.file")
	}
	if viper.IsSet("engine.max_execution_time_seconds") {
		cfg.Engine.MaxExecutionTime = viper.GetInt("engine.max_execution_time_seconds")
	}
	if viper.IsSet("engine.max_concurrent_runs") {
		cfg.Engine.MaxConcurrentRuns = viper.GetInt("engine.max_concurrent_runs")
	}
}

// newLogger opens <work_dir>/sniprun.log, or the configured file. A log
// that cannot be opened is not fatal.
func newLogger(cfg *config.Config) *logging.DefaultLogger {
	logger, err := logging.NewFileLogger(cfg.LogFile(), logging.ParseLevel(cfg.Logging.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return logging.NewNullLogger()
	}
	return logger
}

// setup loads the configuration and opens the log of a command
func setup() (*config.Config, *logging.DefaultLogger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg), nil
}
