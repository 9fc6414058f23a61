package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sniprun/launcher"
)

var infoFiletype string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the interpreters and which one a filetype selects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Close()

		data := cfg.NewDataHolder()
		data.Filetype = infoFiletype
		data.Logger = logger
		fmt.Fprint(cmd.OutOrStdout(), launcher.New(data, nil).Info())
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVarP(&infoFiletype, "filetype", "t", "", "filetype to report the selection for")
	rootCmd.AddCommand(infoCmd)
}
