package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/reports"
)

var (
	churnBaseline string
	churnAliases  string
	churnOutput   string
)

var churnCmd = &cobra.Command{
	Use:   "entity-churn [flags] <log-file>...",
	Short: "Classify entity churn against a baseline",
	Long: `Classifies every entity observed in the logs as pre-existing (in the
baseline), new, or ephemeral (observed lifespan within the ephemeral window
and absent from the baseline), with a per-day churn series.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := runCtx(cmd)

		baseline, aliases, err := loadBaselineAndAliases(churnBaseline, churnAliases)
		if err != nil {
			return err
		}

		res, err := runAnalysis(ctx, args, agg.Config{Entities: true})
		if err != nil {
			return err
		}

		rep := reports.BuildChurn(res.Bundle.Entities, baseline, aliases, opts.EphemeralWindow)
		rep.WriteText(os.Stdout)
		quality(res).Write(os.Stdout)

		if churnOutput != "" {
			return writeFile(churnOutput, func(w io.Writer) error { return rep.WriteCSV(w) })
		}
		return nil
	},
}

func init() {
	churnCmd.Flags().StringVar(&churnBaseline, "baseline", "", "baseline entity list (JSON or CSV, from fetch-baseline)")
	churnCmd.Flags().StringVar(&churnAliases, "entity-map", "", "entity alias mapping for display name enrichment")
	churnCmd.Flags().StringVarP(&churnOutput, "output", "o", "", "CSV export path")
	churnCmd.Flags().DurationVar(&opts.EphemeralWindow, "ephemeral-window", opts.EphemeralWindow, "max lifespan for an ephemeral entity (inclusive)")
	rootCmd.AddCommand(churnCmd)
}
