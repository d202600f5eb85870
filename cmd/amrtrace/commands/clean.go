package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/amrtrace/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stored run summaries and written artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetBool("output")
			all, _ := cmd.Flags().GetBool("all")
			configFile, _ := cmd.Flags().GetString("config")

			opts := app.CleanOptions{ConfigFile: configFile}

			switch {
			case all:
				opts.Store = true
				opts.Output = true
			case output:
				opts.Output = true
			default:
				// Default behavior: clean stored summaries
				opts.Store = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().Bool("output", false, "Remove the configured output directory")
	cmd.Flags().BoolP("all", "a", false, "Remove stored summaries and the output directory")

	return cmd
}
