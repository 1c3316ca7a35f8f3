package main

import (
	"os"

	"github.com/spf13/cobra"

	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/reports"
)

var gapsCmd = &cobra.Command{
	Use:   "entity-gaps [flags] <log-file>...",
	Short: "Detect silences in per-entity activity",
	Long: `Buffers every per-entity timestamp, sorts once after the final
merge, and reports every silence strictly longer than the gap window.
Memory grows with events per entity; prefer narrow time ranges on very
large corpora.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := runCtx(cmd)

		res, err := runAnalysis(ctx, args, agg.Config{Gaps: true})
		if err != nil {
			return err
		}

		rep := reports.BuildGaps(res.Bundle.Gaps, opts.GapWindow)
		rep.WriteText(os.Stdout)
		quality(res).Write(os.Stdout)
		return nil
	},
}

func init() {
	gapsCmd.Flags().DurationVar(&opts.GapWindow, "window", opts.GapWindow, "silence duration that counts as a gap")
	rootCmd.AddCommand(gapsCmd)
}
