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

func runEmbed(args []string) int {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 200, "Maximum articles to embed")
	batchSize := fs.Int("batch-size", pipeline.DefaultEmbeddingBatchSize, "Articles sent per embedding request")
	timeout := fs.Duration("timeout", 10*time.Minute, "Overall embed timeout")

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
		logger.Error().Err(err).Msg("embed failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	svc := pipeline.NewService(pool, pipeline.NewLLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), logger)

	result, err := svc.EmbedPending(ctx, pipeline.EmbedOptions{
		Limit:      *limit,
		BatchSize:  *batchSize,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		logger.Error().Err(err).Msg("embed run failed")
		fmt.Fprintf(os.Stderr, "Embed failed: %v\n", err)
		return 1
	}

	fmt.Printf("ok: processed=%d embedded=%d skipped=%d failed=%d\n", result.Processed, result.Embedded, result.Skipped, result.Failed)
	return 0
}
