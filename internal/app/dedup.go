package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DebritB/NewsRAG/internal/cli"
	"github.com/DebritB/NewsRAG/internal/config"
	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/logging"
	"github.com/DebritB/NewsRAG/internal/pipeline"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	threshold := fs.Float64("threshold", 0, "Similarity threshold override (0 uses config)")
	candidates := fs.Int("candidates", 0, "Nearest-neighbor candidates per article (0 uses config)")
	batchSize := fs.Int("batch-size", 0, "Unprocessed articles per sweep (0 uses config)")
	timeout := fs.Duration("timeout", 15*time.Minute, "Overall dedup timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *threshold < 0 || *threshold > 1 {
		fmt.Fprintln(os.Stderr, "--threshold must be between 0 and 1")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("dedup failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	opts := pipeline.DedupOptions{
		SimilarityThreshold: cfg.SimilarityThreshold,
		NumCandidates:       cfg.DedupNumCandidates,
		BatchSize:           cfg.DedupBatchSize,
	}
	if *threshold > 0 {
		opts.SimilarityThreshold = *threshold
	}
	if *candidates > 0 {
		opts.NumCandidates = *candidates
	}
	if *batchSize > 0 {
		opts.BatchSize = *batchSize
	}

	svc := pipeline.NewService(pool, nil, logger)

	report, err := svc.DedupPending(ctx, opts)
	if err != nil {
		logger.Error().Err(err).Msg("dedup run failed")
		fmt.Fprintf(os.Stderr, "Dedup failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"ok: merged=%d standalone=%d skipped=%d stale=%d errors=%d\n",
		report.MergedCount, report.StandaloneCount, report.SkippedCount, report.StaleCount, report.ErrorCount,
	)
	return 0
}
