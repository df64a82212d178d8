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

func runClassify(args []string) int {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 200, "Maximum articles to classify")
	batchSize := fs.Int("batch-size", pipeline.DefaultClassifyBatchSize, "Articles selected per sweep")
	timeout := fs.Duration("timeout", 10*time.Minute, "Overall classify timeout")

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
		logger.Error().Err(err).Msg("classify failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	svc := pipeline.NewService(pool, pipeline.NewLLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), logger)

	result, err := svc.ClassifyPending(ctx, pipeline.ClassifyOptions{
		Limit:     *limit,
		BatchSize: *batchSize,
		Model:     cfg.ChatModel,
	})
	if err != nil {
		logger.Error().Err(err).Msg("classify run failed")
		fmt.Fprintf(os.Stderr, "Classify failed: %v\n", err)
		return 1
	}

	fmt.Printf("ok: processed=%d classified=%d failed=%d\n", result.Processed, result.Classified, result.Failed)
	return 0
}
