package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/DebritB/NewsRAG/internal/cli"
	"github.com/DebritB/NewsRAG/internal/config"
	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/highlight"
	"github.com/DebritB/NewsRAG/internal/ingest"
	"github.com/DebritB/NewsRAG/internal/logging"
	"github.com/DebritB/NewsRAG/internal/pipeline"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	skipScrape := fs.Bool("skip-scrape", false, "Skip the scrape stage")
	limit := fs.Int("limit", 500, "Maximum articles per enrichment stage")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall process timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be positive")
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
		logger.Error().Err(err).Msg("process failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	if !*skipScrape {
		scraper := ingest.NewService(pool, &http.Client{Timeout: 30 * time.Second}, cfg.ScrapeUserAgent, logger)
		scrapeResult, err := scraper.ScrapeAll(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("process scrape stage failed")
			fmt.Fprintf(os.Stderr, "Scrape stage failed: %v\n", err)
			return 1
		}
		fmt.Printf("scrape: inserted=%d duplicates=%d failed=%d\n", scrapeResult.Inserted, scrapeResult.Duplicates, scrapeResult.Failed)
	}

	svc := pipeline.NewService(pool, pipeline.NewLLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), logger)

	classifyResult, err := svc.ClassifyPending(ctx, pipeline.ClassifyOptions{
		Limit: *limit,
		Model: cfg.ChatModel,
	})
	if err != nil {
		logger.Error().Err(err).Msg("process classify stage failed")
		fmt.Fprintf(os.Stderr, "Classify stage failed: %v\n", err)
		return 1
	}
	fmt.Printf("classify: classified=%d failed=%d\n", classifyResult.Classified, classifyResult.Failed)

	embedResult, err := svc.EmbedPending(ctx, pipeline.EmbedOptions{
		Limit:      *limit,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		logger.Error().Err(err).Msg("process embed stage failed")
		fmt.Fprintf(os.Stderr, "Embed stage failed: %v\n", err)
		return 1
	}
	fmt.Printf("embed: embedded=%d skipped=%d\n", embedResult.Embedded, embedResult.Skipped)

	report, err := svc.DedupPending(ctx, pipeline.DedupOptions{
		SimilarityThreshold: cfg.SimilarityThreshold,
		NumCandidates:       cfg.DedupNumCandidates,
		BatchSize:           cfg.DedupBatchSize,
	})
	if err != nil {
		logger.Error().Err(err).Msg("process dedup stage failed")
		fmt.Fprintf(os.Stderr, "Dedup stage failed: %v\n", err)
		return 1
	}
	fmt.Printf(
		"dedup: merged=%d standalone=%d skipped=%d stale=%d errors=%d\n",
		report.MergedCount, report.StandaloneCount, report.SkippedCount, report.StaleCount, report.ErrorCount,
	)

	highlightResult, err := highlight.NewService(pool, logger).Refresh(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("process highlights stage failed")
		fmt.Fprintf(os.Stderr, "Highlights stage failed: %v\n", err)
		return 1
	}
	fmt.Printf("highlights: highlighted=%d\n", highlightResult.Highlighted)

	return 0
}
