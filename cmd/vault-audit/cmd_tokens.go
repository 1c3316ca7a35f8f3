package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/reports"
)

var tokensExport string

var tokensCmd = &cobra.Command{
	Use:   "token-analysis [flags] <log-file>...",
	Short: "Token lifecycle, lookup abuse, and attribution conflicts",
	Long: `Tracks every token accessor across the logs: lifespan, per-kind
operation counts, per-entity rollups, and lookup-abuse flagging. The abuse
threshold is applied after the final merge so parallel runs flag exactly
like sequential ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := runCtx(cmd)

		res, err := runAnalysis(ctx, args, agg.Config{Accessors: true})
		if err != nil {
			return err
		}

		rep := reports.BuildTokens(res.Bundle.Accessors, opts.AbuseThreshold)
		rep.WriteText(os.Stdout)
		quality(res).Write(os.Stdout)

		if tokensExport != "" {
			return writeFile(tokensExport, func(w io.Writer) error {
				return rep.WriteCSV(w, opts.MinOperations)
			})
		}
		return nil
	},
}

func init() {
	tokensCmd.Flags().IntVar(&opts.AbuseThreshold, "abuse-threshold", opts.AbuseThreshold, "lookup count that flags an accessor or entity")
	tokensCmd.Flags().StringVar(&tokensExport, "export", "", "CSV export path for per-accessor detail")
	tokensCmd.Flags().IntVar(&opts.MinOperations, "min-operations", opts.MinOperations, "minimum operations for a CSV export row")
	rootCmd.AddCommand(tokensCmd)
}
