package dedup

// DefaultSimilarityThreshold is the minimum cosine similarity for two
// articles to be considered the same story.
const DefaultSimilarityThreshold = 0.85

// Grouper decides which nearest-neighbor candidates belong to the same
// real-world story as a pivot article.
type Grouper struct {
	threshold float64
}

func NewGrouper(threshold float64) *Grouper {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Grouper{threshold: threshold}
}

// Group filters candidates down to the pivot's match set. Candidates are
// expected ordered by descending similarity; order is preserved in the
// result. The pivot itself is never part of the output.
//
// Matching is single-hop: only direct neighbors of the pivot within the
// candidate limit are considered, so a chain A~B~C where A and C are not
// each other's near-neighbors stays two groups in one pass.
func (g *Grouper) Group(pivot Article, candidates []Candidate) ([]Article, error) {
	if len(pivot.Embedding) == 0 {
		return nil, &PreconditionError{ID: pivot.ID, Reason: "embedding not yet populated"}
	}

	matched := make([]Article, 0, len(candidates))
	for _, candidate := range candidates {
		// A single outlet cannot duplicate itself: two topically similar
		// stories from the same source stay separate.
		if candidate.Article.Source == pivot.Source {
			continue
		}
		if candidate.Similarity < g.threshold {
			continue
		}
		// A processed neighbor whose source is already folded into the
		// pivot's provenance was merged on an earlier sweep.
		if candidate.Article.Processed && containsSource(pivot.SourceList, candidate.Article.Source) {
			continue
		}
		matched = append(matched, candidate.Article)
	}
	return matched, nil
}

func containsSource(list []string, source string) bool {
	for _, s := range list {
		if s == source {
			return true
		}
	}
	return false
}
