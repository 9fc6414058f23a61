package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sniprun/replstate"
)

var cleanReplOnly bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the work directory, or only the REPL memos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cleanReplOnly {
			if err := replstate.ResetAll(cfg.WorkDir); err != nil {
				return fmt.Errorf("failed to reset REPL memos: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "REPL state cleared")
			return nil
		}

		if err := cfg.NewDataHolder().CleanDir(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", cfg.WorkDir)
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanReplOnly, "repl", false, "only forget the REPL state")
	rootCmd.AddCommand(cleanCmd)
}
