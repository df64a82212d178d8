package dedup

import (
	"errors"
	"testing"
	"time"
)

func TestPlanMerge_EarliestPublishedWins(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("late", "abc_news", base.Add(2*time.Hour))
	early := testArticle("early", "smh", base)
	middle := testArticle("middle", "seven_news", base.Add(time.Hour))

	plan, err := PlanMerge(pivot, []Article{early, middle}, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.CanonicalID != "early" {
		t.Fatalf("expected earliest member to be canonical, got %s", plan.CanonicalID)
	}
	if len(plan.DeleteIDs) != 2 {
		t.Fatalf("expected two deletions, got %v", plan.DeleteIDs)
	}
	for _, id := range plan.DeleteIDs {
		if id == "early" {
			t.Fatalf("canonical id must never be deleted")
		}
	}
}

func TestPlanMerge_TieBreaksOnSmallestID(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("bbb", "abc_news", published)
	other := testArticle("aaa", "smh", published)

	plan, err := PlanMerge(pivot, []Article{other}, published)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CanonicalID != "aaa" {
		t.Fatalf("expected lexicographically smallest id on tie, got %s", plan.CanonicalID)
	}
}

func TestPlanMerge_SourceListIsUnionWithoutDuplicates(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("a", "abc_news", base)
	pivot.SourceList = []string{"abc_news"}

	merged := testArticle("b", "smh", base.Add(time.Hour))
	merged.SourceList = []string{"smh", "abc_news", "nine_news"}

	bare := testArticle("c", "seven_news", base.Add(2*time.Hour))

	plan, err := PlanMerge(pivot, []Article{merged, bare}, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"abc_news", "smh", "nine_news", "seven_news"}
	if len(plan.SourceList) != len(want) {
		t.Fatalf("unexpected source list: %v", plan.SourceList)
	}
	for i, source := range want {
		if plan.SourceList[i] != source {
			t.Fatalf("unexpected source list order: got %v want %v", plan.SourceList, want)
		}
	}
	if plan.OccurrenceCount != len(plan.SourceList) {
		t.Fatalf("occurrence count %d must equal source list length %d", plan.OccurrenceCount, len(plan.SourceList))
	}
}

func TestPlanMerge_StandaloneStillMarksProcessed(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("solo", "abc_news", published)

	plan, err := PlanMerge(pivot, nil, published)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CanonicalID != "solo" || len(plan.DeleteIDs) != 0 {
		t.Fatalf("expected standalone plan, got %+v", plan)
	}

	update := plan.CanonicalUpdate()
	if !update.Processed {
		t.Fatalf("standalone article must still be marked processed")
	}
	if update.OccurrenceCount != 1 || len(update.SourceList) != 1 {
		t.Fatalf("standalone provenance must be the article's own source, got %+v", update)
	}
}

func TestPlanMerge_DuplicateMemberIDConflicts(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("a", "abc_news", published)
	dup := testArticle("a", "smh", published)

	_, err := PlanMerge(pivot, []Article{dup}, published)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error for duplicate member id, got %v", err)
	}
}

func TestPlanMerge_DimensionMismatchConflicts(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("a", "abc_news", published)
	other := testArticle("b", "smh", published)
	other.Embedding = []float32{1, 0}

	_, err := PlanMerge(pivot, []Article{other}, published)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error for embedding dimension mismatch, got %v", err)
	}
}

func TestPlanMerge_IsDeterministic(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pivot := testArticle("b", "abc_news", base.Add(time.Hour))
	first := testArticle("a", "smh", base)
	second := testArticle("c", "seven_news", base.Add(2*time.Hour))

	planOne, err := PlanMerge(pivot, []Article{first, second}, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	planTwo, err := PlanMerge(pivot, []Article{second, first}, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if planOne.CanonicalID != planTwo.CanonicalID {
		t.Fatalf("canonical choice must not depend on group order: %s vs %s", planOne.CanonicalID, planTwo.CanonicalID)
	}
	if planOne.OccurrenceCount != planTwo.OccurrenceCount {
		t.Fatalf("occurrence count must not depend on group order")
	}
}
