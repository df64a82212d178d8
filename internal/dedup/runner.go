package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DebritB/NewsRAG/internal/globaltime"
)

const DefaultNumCandidates = 100

// Config carries the deduplication knobs.
type Config struct {
	// SimilarityThreshold is the minimum cosine similarity to treat two
	// articles as the same story. Defaults to DefaultSimilarityThreshold.
	SimilarityThreshold float64
	// NumCandidates bounds the nearest-neighbor query per pivot.
	NumCandidates int
}

// RunReport summarizes one sweep over a batch of pivot ids.
type RunReport struct {
	MergedCount     int
	StandaloneCount int
	SkippedCount    int
	StaleCount      int
	ErrorCount      int
}

// Runner drives the per-pivot group → plan → apply loop over a batch of
// unprocessed article ids. It is designed as a short-lived periodic sweep:
// no internal concurrency, safe against overlapping invocations because
// every merge is independently idempotent.
type Runner struct {
	store   Store
	grouper *Grouper
	cfg     Config
	logger  zerolog.Logger
}

func NewRunner(store Store, cfg Config, logger zerolog.Logger) *Runner {
	if cfg.NumCandidates <= 0 {
		cfg.NumCandidates = DefaultNumCandidates
	}
	return &Runner{
		store:   store,
		grouper: NewGrouper(cfg.SimilarityThreshold),
		cfg:     cfg,
		logger:  logger,
	}
}

// Run processes each pivot id independently; one pivot's failure never
// aborts the batch. Only context cancellation propagates out, and a
// cancelled run leaves the store safe: every applied merge is complete or
// re-derivable as a no-op on the next sweep.
func (r *Runner) Run(ctx context.Context, ids []string) (RunReport, error) {
	var report RunReport
	if r == nil || r.store == nil {
		return report, fmt.Errorf("dedup runner is not initialized")
	}

	deleted := make(map[string]struct{})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, gone := deleted[id]; gone {
			// Removed as a non-canonical member by an earlier pivot's
			// merge in this same run.
			report.StaleCount++
			r.logger.Debug().Str("article_id", id).Msg("pivot already merged away this run")
			continue
		}

		plan, err := r.processPivot(ctx, id)
		if err != nil {
			var precondition *PreconditionError
			var stale *StaleReferenceError
			switch {
			case errors.As(err, &precondition):
				report.SkippedCount++
			case errors.As(err, &stale):
				report.StaleCount++
			default:
				report.ErrorCount++
				r.logger.Error().Err(err).Str("article_id", id).Msg("dedup failed for pivot")
			}
			continue
		}

		for _, deletedID := range plan.DeleteIDs {
			deleted[deletedID] = struct{}{}
		}
		if len(plan.DeleteIDs) > 0 {
			report.MergedCount++
			r.logger.Info().
				Str("canonical_id", plan.CanonicalID).
				Int("sources", plan.OccurrenceCount).
				Int("removed", len(plan.DeleteIDs)).
				Msg("merged duplicate articles")
		} else {
			report.StandaloneCount++
		}
	}

	return report, nil
}

// processPivot runs the full per-pivot procedure and returns the applied
// plan. The canonical update is applied before the deletes: if a delete
// fails midway, the leftovers re-derive the same plan on the next sweep and
// finish the job, so no compensating transaction is needed.
func (r *Runner) processPivot(ctx context.Context, id string) (MergePlan, error) {
	pivot, found, err := r.store.Get(ctx, id)
	if err != nil {
		return MergePlan{}, fmt.Errorf("load pivot %s: %w", id, err)
	}
	if !found {
		return MergePlan{}, &StaleReferenceError{ID: id}
	}
	if len(pivot.Embedding) == 0 {
		// Embedding stage has not reached this article yet.
		return MergePlan{}, &PreconditionError{ID: id, Reason: "embedding not yet populated"}
	}

	candidates, err := r.store.SearchNeighbors(ctx, pivot.Embedding, r.cfg.NumCandidates, pivot.ID)
	if err != nil {
		return MergePlan{}, fmt.Errorf("search neighbors for %s: %w", id, err)
	}

	group, err := r.grouper.Group(pivot, candidates)
	if err != nil {
		return MergePlan{}, err
	}

	plan, err := PlanMerge(pivot, group, globaltime.UTC())
	if err != nil {
		return MergePlan{}, err
	}

	if err := r.store.Update(ctx, plan.CanonicalID, plan.CanonicalUpdate()); err != nil {
		return MergePlan{}, fmt.Errorf("update canonical %s: %w", plan.CanonicalID, err)
	}
	for _, deleteID := range plan.DeleteIDs {
		if err := r.store.Delete(ctx, deleteID); err != nil {
			return MergePlan{}, fmt.Errorf("delete merged article %s: %w", deleteID, err)
		}
	}

	return plan, nil
}
