package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/amrtrace/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured workload through every trace sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			sinks, _ := cmd.Flags().GetStringSlice("sink")
			out, _ := cmd.Flags().GetString("out")
			noCache, _ := cmd.Flags().GetBool("no-cache")

			opts := app.RunOptions{
				ConfigFile: configFile,
				Sinks:      sinks,
				OutputDir:  out,
				NoCache:    noCache,
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				opts.Seed = &seed
			}

			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringSlice("sink", nil, "Only run sinks of these kinds (graph, events)")
	cmd.Flags().StringP("out", "o", "", "Override the output directory")
	cmd.Flags().Uint64("seed", 0, "Override the control message picker seed of every sink")
	cmd.Flags().BoolP("no-cache", "n", false, "Run even when a summary for the configuration exists")
	return cmd
}
