package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"sniprun/eventloop"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve JSON line requests on stdin, one response per line on stdout",
	Long: `Serve reads one request per line:

  {"id": 1, "event": "run", "params": {"filetype": "lua", "current_bloc": "print(1)"}}

Events are run, clean, clearrepl, info and ping. Runs execute concurrently
and share the REPL state of the process; responses may arrive out of order
and carry the id of their request. The server stops at the end of input,
once the runs in flight have answered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		server := eventloop.NewServer(cfg, nil, logger, cmd.OutOrStdout())
		return server.Serve(cmd.Context(), os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
