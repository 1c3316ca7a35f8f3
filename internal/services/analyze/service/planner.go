// Package service provides the execution planner: it decides sequential vs
// parallel execution, owns the worker pool, and performs the fan-in merge.
package service

import (
	"context"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/platform/logger"
	"vaultaudit/internal/services/analyze/agg"
	"vaultaudit/internal/services/analyze/domain"
)

// Config holds planner tuning
type Config struct {
	// Workers caps the pool; <=0 uses NumCPU. 1 forces sequential execution.
	Workers int
	// ProgressEvery emits an advisory progress log every N lines per file;
	// <=0 disables. Progress never blocks workers or affects the merge.
	ProgressEvery int
}

// Planner runs one batch pass over a set of audit log files.
//
// State machine: Init -> {SequentialRun | ParallelRun} -> Merging -> Done.
// A per-file fatal error downgrades that file's contribution to empty and
// never cancels sibling files; only zero readable files is run-fatal.
type Planner struct {
	Readers domain.ReaderFactory
	Agg     agg.Config
	Cfg     Config
}

// Result is the merged outcome of one run
type Result struct {
	Bundle     *agg.Bundle
	Stats      domain.RunStats
	FileErrors []domain.FileError
}

// New constructs a planner
func New(readers domain.ReaderFactory, aggCfg agg.Config, cfg Config) *Planner {
	if readers == nil {
		panic("analyze.Planner requires a non nil ReaderFactory")
	}
	return &Planner{Readers: readers, Agg: aggCfg, Cfg: cfg}
}

// Run executes the pass and returns the fully merged aggregate state
func (p *Planner) Run(ctx context.Context, files []string) (*Result, error) {
	if len(files) == 0 {
		return nil, perr.New(perr.ErrorCodeConfig, "no input files")
	}

	workers := p.Cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	var bundles []*agg.Bundle
	var ferrs []domain.FileError
	var err error
	if len(files) == 1 || workers == 1 {
		bundles, ferrs = p.runSequential(ctx, files)
	} else {
		bundles, ferrs, err = p.runParallel(ctx, files, workers)
		if err != nil {
			return nil, err
		}
	}

	if len(ferrs) == len(files) {
		return nil, perr.Newf(perr.ErrorCodeFatalFile, "no readable input files (%d failed)", len(ferrs))
	}

	// Merging: single-threaded fan-in; order is irrelevant by the
	// aggregator algebra, input order is used for determinism of logs.
	merged := agg.NewBundle("", p.Agg)
	for _, b := range bundles {
		if b != nil {
			merged.Merge(b)
		}
	}

	stats := domain.RunStats{
		Files:       len(files) - len(ferrs),
		FailedFiles: len(ferrs),
		Lines:       merged.Stats.Lines,
		Events:      merged.Stats.Events,
		Failures:    merged.Stats.Failures,
		Bytes:       merged.Stats.Bytes,
	}
	if merged.Accessors != nil {
		stats.Conflicts = merged.Accessors.Conflicts()
	}

	logger.C(ctx).Info().
		Int("files", stats.Files).
		Int("failed_files", stats.FailedFiles).
		Int("lines", stats.Lines).
		Int("events", stats.Events).
		Int("parse_failures", stats.Failures).
		Msg("analyze: run complete")

	return &Result{Bundle: merged, Stats: stats, FileErrors: ferrs}, nil
}

func (p *Planner) runSequential(ctx context.Context, files []string) ([]*agg.Bundle, []domain.FileError) {
	bundles := make([]*agg.Bundle, 0, len(files))
	var ferrs []domain.FileError
	for i, f := range files {
		logger.C(ctx).Info().Str("file", f).Msgf("analyze: [%d/%d] processing", i+1, len(files))
		b, err := p.processFile(ctx, f)
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("file", f).Msg("analyze: file excluded")
			ferrs = append(ferrs, domain.FileError{Path: f, Err: err})
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles, ferrs
}

func (p *Planner) runParallel(ctx context.Context, files []string, workers int) ([]*agg.Bundle, []domain.FileError, error) {
	bundles := make([]*agg.Bundle, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			fctx := logger.WithFile(gctx, f)
			logger.C(fctx).Info().Msgf("analyze: [%d/%d] processing", i+1, len(files))
			b, err := p.processFile(fctx, f)
			if err != nil {
				// per-file fatal: record, keep siblings running
				logger.C(fctx).Error().Err(err).Msg("analyze: file excluded")
				errs[i] = err
				return nil
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var ferrs []domain.FileError
	for i, err := range errs {
		if err != nil {
			ferrs = append(ferrs, domain.FileError{Path: files[i], Err: err})
		}
	}
	return bundles, ferrs, nil
}

// processFile runs codec + line decoder + fold for one file. The bundle is
// owned exclusively by this call; no locks are needed during folding.
func (p *Planner) processFile(ctx context.Context, file string) (*agg.Bundle, error) {
	rd, err := p.Readers.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rd.Close(); cerr != nil {
			logger.C(ctx).Warn().Err(cerr).Str("file", file).Msg("analyze: close failed")
		}
	}()

	b := agg.NewBundle(file, p.Agg)
	for {
		ev, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// mid-stream read error (e.g. truncated compressed stream):
			// the whole file is excluded, partial folds are discarded
			return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "read audit log"), file)
		}
		b.Fold(ev)

		b.Stats = rd.Stats()
		if p.Cfg.ProgressEvery > 0 && b.Stats.Lines%p.Cfg.ProgressEvery == 0 {
			logger.C(ctx).Debug().Int("lines", b.Stats.Lines).Msg("analyze: progress")
		}
	}
	b.Stats = rd.Stats()

	logger.C(ctx).Info().
		Str("file", file).
		Int("lines", b.Stats.Lines).
		Int("events", b.Stats.Events).
		Int("parse_failures", b.Stats.Failures).
		Msg("analyze: file complete")
	return b, nil
}
