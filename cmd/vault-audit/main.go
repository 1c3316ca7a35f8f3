// Package main implements the vault-audit CLI: batch analysis reports over
// Vault audit logs.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"vaultaudit/internal/platform/config"
	"vaultaudit/internal/platform/logger"
	"vaultaudit/internal/services/analyze/module"
)

var (
	flagLogLevel  string
	flagLogFormat string
	flagWorkers   int
)

// opts carries env-derived defaults; subcommand flags override fields
var opts module.Options

var rootCmd = &cobra.Command{
	Use:           "vault-audit",
	Short:         "Vault audit log analysis tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		lo := logger.FromEnv()
		if flagLogLevel != "" {
			lo.Level = flagLogLevel
		}
		if flagLogFormat != "" {
			lo.Format = flagLogFormat
		}
		logger.Init(lo)
		opts.Workers = flagWorkers
	},
}

func init() {
	opts = module.FromConfig(config.New())

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace..error; default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: console or json (default from LOG_FORMAT)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", opts.Workers, "parallel file workers (0 = NumCPU)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Get().Error().Err(err).Msg("vault-audit failed")
		os.Exit(1)
	}
}
