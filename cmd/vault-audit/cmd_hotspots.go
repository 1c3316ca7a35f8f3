package main

import (
	"os"

	"github.com/spf13/cobra"

	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/reports"
)

var hotspotsCmd = &cobra.Command{
	Use:   "path-hotspots [flags] <log-file>...",
	Short: "Rank the most accessed paths",
	Long: `Aggregates operations per normalized path (KV v2 data/metadata
segments stripped) and ranks top-N by operation count and by unique
entity count, with deterministic optimization recommendations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := runCtx(cmd)

		res, err := runAnalysis(ctx, args, agg.Config{Paths: true})
		if err != nil {
			return err
		}

		rep := reports.BuildHotspots(res.Bundle.Paths, opts.TopN)
		rep.WriteText(os.Stdout)
		quality(res).Write(os.Stdout)
		return nil
	},
}

func init() {
	hotspotsCmd.Flags().IntVar(&opts.TopN, "top", opts.TopN, "number of paths to rank")
	rootCmd.AddCommand(hotspotsCmd)
}
