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
	"github.com/DebritB/NewsRAG/internal/ingest"
	"github.com/DebritB/NewsRAG/internal/logging"
)

func runScrape(args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Overall scrape timeout")
	fetchTimeout := fs.Duration("fetch-timeout", 30*time.Second, "Per-request HTTP timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
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
		logger.Error().Err(err).Msg("scrape failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	client := &http.Client{Timeout: *fetchTimeout}
	svc := ingest.NewService(pool, client, cfg.ScrapeUserAgent, logger)

	result, err := svc.ScrapeAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scrape run failed")
		fmt.Fprintf(os.Stderr, "Scrape failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"ok: outlets=%d items=%d inserted=%d duplicates=%d failed=%d\n",
		result.OutletsPolled, result.ItemsSeen, result.Inserted, result.Duplicates, result.Failed,
	)
	return 0
}
