package cmd

import (
	"fmt"

	"github.com/cottand/symdag/symdag"
	"github.com/spf13/cobra"
)

func newCanonCmd(global *globalFlags) *cobra.Command {
	var (
		outPath string
		emitGo  bool
		stats   bool
	)
	canon := &cobra.Command{
		Use:          "canon [file|-]",
		Short:        "Print the canonical form of every definition",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := global.loadSettings()
			if err != nil {
				return err
			}
			settings.EmitGo = settings.EmitGo || emitGo || outPath != ""

			res, err := process(cmd, args, settings)
			if err != nil {
				return err
			}
			if _, err := res.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			if stats {
				printStats(cmd, res)
			}
			if outPath != "" {
				return symdag.WriteModule(outPath, res, settings)
			}
			return nil
		},
	}
	canon.Flags().StringVarP(&outPath, "out", "o", "", "write the generated Go module to this directory")
	canon.Flags().BoolVar(&emitGo, "go", false, "print the generated Go source")
	canon.Flags().BoolVar(&stats, "stats", false, "print session statistics")
	return canon
}

func printStats(cmd *cobra.Command, res *symdag.Result) {
	st := res.Stats
	out := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(out, "live nodes:     %v\n", st.Live)
	_, _ = fmt.Fprintf(out, "reserved words: %d\n", st.ReservedWords)
	_, _ = fmt.Fprintf(out, "cache:          %d entries, %d hits, %d misses, %d stores\n",
		st.CacheEntries, st.CacheHits, st.CacheMisses, st.CacheStores)
	_, _ = fmt.Fprintf(out, "reclaims:       %d\n", st.Reclaims)
	_, _ = fmt.Fprintf(out, "release slots:  %d\n", st.ReleaseSlots)
}
