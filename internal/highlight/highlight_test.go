package highlight

import (
	"testing"
)

func TestScore_BreakingKeywordOutranksPlainTitle(t *testing.T) {
	t.Parallel()

	breaking := score("BREAKING: flood warning issued", "", 1)
	plain := score("Flood warning issued", "", 1)
	if breaking <= plain {
		t.Fatalf("keyword title must outscore plain title: %f <= %f", breaking, plain)
	}
}

func TestScore_KeywordMatchesWholeWordsOnly(t *testing.T) {
	t.Parallel()

	// "majority" must not trip the "major" keyword.
	withSubstring := score("Majority backs new stadium", "", 1)
	baseline := score("Crowd backs new stadium", "", 1)
	if withSubstring != baseline {
		t.Fatalf("substring must not count as keyword: %f != %f", withSubstring, baseline)
	}
}

func TestScore_FrequencyCapsAtTenSources(t *testing.T) {
	t.Parallel()

	atCap := score("story", "", 10)
	overCap := score("story", "", 25)
	if atCap != overCap {
		t.Fatalf("frequency component must cap at ten sources: %f != %f", atCap, overCap)
	}

	low := score("story", "", 1)
	if atCap <= low {
		t.Fatalf("widely reported story must outscore single-source story")
	}
}

func TestPickHighlights_TopFivePerCategory(t *testing.T) {
	t.Parallel()

	articles := make([]recentArticle, 0, 8)
	for i := 0; i < 7; i++ {
		articles = append(articles, recentArticle{
			ArticleID:       string(rune('a' + i)),
			Title:           "sports story",
			Category:        "sports",
			OccurrenceCount: i + 1,
		})
	}
	articles = append(articles, recentArticle{
		ArticleID:       "z",
		Title:           "finance story",
		Category:        "finance",
		OccurrenceCount: 1,
	})

	winners := pickHighlights(articles, 5)
	if len(winners) != 6 {
		t.Fatalf("expected 5 sports + 1 finance winners, got %d: %v", len(winners), winners)
	}

	picked := make(map[string]bool, len(winners))
	for _, id := range winners {
		picked[id] = true
	}
	if !picked["z"] {
		t.Fatalf("finance story must win its own category")
	}
	// The two lowest-occurrence sports stories lose.
	if picked["a"] || picked["b"] {
		t.Fatalf("lowest scored sports stories must not be picked: %v", winners)
	}
}

func TestPickHighlights_DeterministicOnTies(t *testing.T) {
	t.Parallel()

	tied := []recentArticle{
		{ArticleID: "b", Title: "same story", Category: "other", OccurrenceCount: 2},
		{ArticleID: "a", Title: "same story", Category: "other", OccurrenceCount: 2},
		{ArticleID: "c", Title: "same story", Category: "other", OccurrenceCount: 2},
	}

	winners := pickHighlights(tied, 2)
	if len(winners) != 2 || winners[0] != "a" || winners[1] != "b" {
		t.Fatalf("ties must break on article id: %v", winners)
	}
}

func TestPickHighlights_EmptyCategoryFallsBackToOther(t *testing.T) {
	t.Parallel()

	winners := pickHighlights([]recentArticle{
		{ArticleID: "x", Title: "uncategorized", Category: "", OccurrenceCount: 1},
	}, 5)
	if len(winners) != 1 || winners[0] != "x" {
		t.Fatalf("uncategorized article must compete in the other bucket: %v", winners)
	}
}
