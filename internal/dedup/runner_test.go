package dedup

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// memStore is an in-memory Store with brute-force cosine search, standing in
// for the vector-indexed article table.
type memStore struct {
	articles map[string]Article

	failGet    map[string]error
	failDelete map[string]error
}

func newMemStore(articles ...Article) *memStore {
	s := &memStore{
		articles:   make(map[string]Article, len(articles)),
		failGet:    map[string]error{},
		failDelete: map[string]error{},
	}
	for _, a := range articles {
		s.articles[a.ID] = a
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (Article, bool, error) {
	if err, ok := s.failGet[id]; ok {
		return Article{}, false, err
	}
	article, ok := s.articles[id]
	return article, ok, nil
}

func (s *memStore) SearchNeighbors(_ context.Context, embedding []float32, k int, excludeID string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(s.articles))
	for _, article := range s.articles {
		if article.ID == excludeID || len(article.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Article:    article,
			Similarity: cosine(embedding, article.Embedding),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Article.ID < candidates[j].Article.ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *memStore) Update(_ context.Context, id string, update CanonicalUpdate) error {
	article, ok := s.articles[id]
	if !ok {
		return fmt.Errorf("update of missing article %s", id)
	}
	article.SourceList = update.SourceList
	article.OccurrenceCount = update.OccurrenceCount
	article.Processed = update.Processed
	s.articles[id] = article
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	if err, ok := s.failDelete[id]; ok {
		delete(s.failDelete, id)
		return err
	}
	delete(s.articles, id)
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func storyArticle(id, source string, published time.Time, embedding []float32) Article {
	return Article{
		ID:          id,
		Title:       "story " + id,
		Source:      source,
		PublishedAt: published,
		Embedding:   embedding,
	}
}

func testRunner(store Store) *Runner {
	return NewRunner(store, Config{SimilarityThreshold: 0.85, NumCandidates: 100}, zerolog.Nop())
}

func TestRun_MergesCrossSourceDuplicates(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(
		storyArticle("a", "abc_news", base, []float32{1, 0, 0}),
		storyArticle("b", "smh", base.Add(time.Hour), []float32{0.95, 0.3122, 0}),
		storyArticle("c", "seven_news", base.Add(2*time.Hour), []float32{0.9, 0.43589, 0}),
	)

	report, err := testRunner(store).Run(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.MergedCount != 1 {
		t.Fatalf("expected one merge, got %+v", report)
	}
	if report.StaleCount != 2 {
		t.Fatalf("expected the two merged-away pivots to count as stale, got %+v", report)
	}
	if len(store.articles) != 1 {
		t.Fatalf("expected a single surviving record, got %d", len(store.articles))
	}

	canonical, ok := store.articles["a"]
	if !ok {
		t.Fatalf("expected earliest article to survive as canonical")
	}
	if !canonical.Processed {
		t.Fatalf("canonical must be marked processed")
	}
	if canonical.OccurrenceCount != 3 || len(canonical.SourceList) != 3 {
		t.Fatalf("expected provenance from three outlets, got %+v", canonical)
	}
}

func TestRun_SameSourceArticlesStaySeparate(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(
		storyArticle("d", "abc_news", base, []float32{1, 0, 0}),
		storyArticle("e", "abc_news", base.Add(time.Hour), []float32{0.95, 0.3122, 0}),
	)

	report, err := testRunner(store).Run(context.Background(), []string{"d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.MergedCount != 0 || report.StandaloneCount != 2 {
		t.Fatalf("expected two standalone results, got %+v", report)
	}
	if len(store.articles) != 2 {
		t.Fatalf("expected both same-source articles to survive, got %d", len(store.articles))
	}
	for id, article := range store.articles {
		if !article.Processed {
			t.Fatalf("article %s must be marked processed", id)
		}
		if article.OccurrenceCount != 1 {
			t.Fatalf("article %s must keep occurrence count 1, got %d", id, article.OccurrenceCount)
		}
	}
}

func TestRun_SecondSweepIsNoOp(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(
		storyArticle("a", "abc_news", base, []float32{1, 0, 0}),
		storyArticle("b", "smh", base.Add(time.Hour), []float32{0.95, 0.3122, 0}),
	)
	runner := testRunner(store)

	if _, err := runner.Run(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error on first sweep: %v", err)
	}

	report, err := runner.Run(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error on second sweep: %v", err)
	}
	if report.MergedCount != 0 {
		t.Fatalf("second sweep must not merge again, got %+v", report)
	}

	canonical := store.articles["a"]
	if canonical.OccurrenceCount != 2 || len(canonical.SourceList) != 2 {
		t.Fatalf("second sweep must not change provenance, got %+v", canonical)
	}
}

func TestRun_StaleAndSkippedPivots(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	unembedded := storyArticle("pending", "abc_news", base, nil)
	store := newMemStore(unembedded)

	report, err := testRunner(store).Run(context.Background(), []string{"gone", "pending"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.StaleCount != 1 {
		t.Fatalf("missing pivot must count as stale, got %+v", report)
	}
	if report.SkippedCount != 1 {
		t.Fatalf("unembedded pivot must count as skipped, got %+v", report)
	}
	if store.articles["pending"].Processed {
		t.Fatalf("skipped pivot must remain unprocessed")
	}
}

func TestRun_FailingPivotDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(
		storyArticle("broken", "abc_news", base, []float32{1, 0, 0}),
		storyArticle("fine", "smh", base, []float32{0, 1, 0}),
	)
	store.failGet["broken"] = fmt.Errorf("connection reset")

	report, err := testRunner(store).Run(context.Background(), []string{"broken", "fine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ErrorCount != 1 {
		t.Fatalf("expected one pivot error, got %+v", report)
	}
	if report.StandaloneCount != 1 {
		t.Fatalf("remaining pivot must still be processed, got %+v", report)
	}
	if !store.articles["fine"].Processed {
		t.Fatalf("unaffected pivot must be marked processed")
	}
}

func TestRun_PartialFailureHealsOnRetry(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(
		storyArticle("a", "abc_news", base, []float32{1, 0, 0}),
		storyArticle("b", "smh", base.Add(time.Hour), []float32{0.95, 0.3122, 0}),
	)
	store.failDelete["b"] = fmt.Errorf("connection reset")
	runner := testRunner(store)

	report, err := runner.Run(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ErrorCount != 1 {
		t.Fatalf("expected the interrupted merge to report an error, got %+v", report)
	}
	if len(store.articles) != 2 {
		t.Fatalf("delete failure must leave the member in place")
	}

	// The canonical update landed before the failed delete; the next sweep
	// over the leftover member re-derives the same plan and finishes it.
	report, err = runner.Run(context.Background(), []string{"b"})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if report.MergedCount != 1 {
		t.Fatalf("retry must complete the merge, got %+v", report)
	}
	if len(store.articles) != 1 {
		t.Fatalf("expected a single surviving record after retry, got %d", len(store.articles))
	}

	canonical := store.articles["a"]
	if !canonical.Processed || canonical.OccurrenceCount != 2 {
		t.Fatalf("canonical must hold the merged provenance, got %+v", canonical)
	}
}

func TestRun_ContextCancellationStopsSweep(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	store := newMemStore(storyArticle("a", "abc_news", base, []float32{1, 0, 0}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testRunner(store).Run(ctx, []string{"a"}); err == nil {
		t.Fatalf("expected context cancellation to propagate")
	}
	if store.articles["a"].Processed {
		t.Fatalf("cancelled sweep must not process pivots")
	}
}
