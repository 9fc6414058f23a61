package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sniprun/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl [filetype]",
	Short: "Interactive prompt running each entry as a fragment",
	Long: `Start an interactive prompt. Each entry runs as a fragment of the given
filetype (lua by default) in REPL mode, so state carries over between
entries when the interpreter supports it. Type :help for the commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		filetype := "lua"
		if len(args) == 1 {
			filetype = args[0]
		}

		r := repl.New(cfg, nil, logger, filetype, cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "sniprun %s, %s fragments. :help for commands, :exit to leave.\n", Version, filetype)
		return r.Run(cmd.Context(), os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
