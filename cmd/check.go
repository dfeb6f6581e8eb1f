package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(global *globalFlags) *cobra.Command {
	var (
		points int
		seed   uint64
	)
	check := &cobra.Command{
		Use:          "check [file|-]",
		Short:        "Run the generated Go of every definition against its input at random points",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := global.loadSettings()
			if err != nil {
				return err
			}
			settings.Check.Enabled = true
			if points > 0 {
				settings.Check.Points = points
			}
			if cmd.Flags().Changed("seed") {
				settings.Check.Seed = seed
			}

			res, err := process(cmd, args, settings)
			if err != nil {
				return err
			}
			for _, d := range res.Definitions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok  %-12s %-30s max rel error %.3g\n", d.Name, d.Canonical, d.MaxRelError)
			}
			return nil
		},
	}
	check.Flags().IntVarP(&points, "points", "n", 0, "points per definition, overriding the settings file")
	check.Flags().Uint64Var(&seed, "seed", 0, "random seed, overriding the settings file")
	return check
}
