package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vaultaudit/internal/adapters/ingest/auditlog"
	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/platform/logger"
	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/service"
	"vaultaudit/internal/services/reports"
)

// runCtx stamps a fresh run id into the command context
func runCtx(cmd *cobra.Command) context.Context {
	return logger.WithRun(cmd.Context(), uuid.NewString())
}

// runAnalysis validates options and executes one pass over the input files
func runAnalysis(ctx context.Context, files []string, cfg agg.Config) (*service.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := service.New(auditlog.NewFactory(), cfg, service.Config{
		Workers:       opts.Workers,
		ProgressEvery: opts.ProgressEvery,
	})
	return p.Run(ctx, files)
}

// quality builds the accounting block for a finished run
func quality(res *service.Result) reports.DataQuality {
	return reports.NewDataQuality(res.Stats, res.FileErrors)
}

// writeFile renders via fn into path, creating parent directories
func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "create output dir"), path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return perr.WithFile(perr.Wrap(err, perr.ErrorCodeConfig, "create output file"), path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return perr.WithFile(perr.Wrap(f.Close(), perr.ErrorCodeUnknown, "close output file"), path)
}

// loadBaselineAndAliases loads the optional churn/kv enrichment inputs
func loadBaselineAndAliases(baselinePath, aliasPath string) (*reports.BaselineSet, reports.AliasMap, error) {
	var (
		baseline *reports.BaselineSet
		aliases  reports.AliasMap
		err      error
	)
	if baselinePath != "" {
		if baseline, err = reports.LoadBaseline(baselinePath); err != nil {
			return nil, nil, err
		}
	}
	if aliasPath != "" {
		if aliases, err = reports.LoadAliases(aliasPath); err != nil {
			return nil, nil, err
		}
	}
	return baseline, aliases, nil
}
