package pipeline

import (
	"context"
	"fmt"

	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/dedup"
)

const DefaultDedupBatchSize = 500

type DedupOptions struct {
	SimilarityThreshold float64
	NumCandidates       int
	BatchSize           int
}

// DedupPending runs one deduplication sweep: it pulls the batch of
// embedded-but-unprocessed article ids and hands them to the runner.
func (s *Service) DedupPending(ctx context.Context, opts DedupOptions) (dedup.RunReport, error) {
	if s == nil || s.pool == nil {
		return dedup.RunReport{}, fmt.Errorf("pipeline service is not initialized")
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultDedupBatchSize
	}

	store := db.NewArticleStore(s.pool)
	ids, err := store.UnprocessedArticleIDs(ctx, batchSize)
	if err != nil {
		return dedup.RunReport{}, err
	}
	if len(ids) == 0 {
		return dedup.RunReport{}, nil
	}

	runner := dedup.NewRunner(store, dedup.Config{
		SimilarityThreshold: opts.SimilarityThreshold,
		NumCandidates:       opts.NumCandidates,
	}, s.logger)

	report, err := runner.Run(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("dedup sweep: %w", err)
	}
	return report, nil
}
