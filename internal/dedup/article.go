package dedup

import (
	"context"
	"time"
)

// Article is the deduplication engine's view of a stored article record.
// Identity, text, source, and publication time are immutable after
// ingestion; the provenance fields (SourceList, OccurrenceCount) and the
// Processed flag are owned by this engine.
type Article struct {
	ID              string
	Title           string
	ContentPreview  string
	Source          string
	PublishedAt     time.Time
	Category        string
	Embedding       []float32
	Processed       bool
	SourceList      []string
	OccurrenceCount int
}

// Candidate is one nearest-neighbor result for a pivot article.
type Candidate struct {
	Article    Article
	Similarity float64
}

// CanonicalUpdate is the mutation applied to the surviving record of a
// merge group. Applying the same update twice is a no-op by construction.
type CanonicalUpdate struct {
	SourceList      []string
	OccurrenceCount int
	Processed       bool
	ProcessedAt     time.Time
	DeduplicatedAt  time.Time
}

// Store is the single-record article store the engine runs against.
// Update and Delete must be atomic per record; deleting a record that no
// longer exists must succeed so that overlapping sweeps racing on the same
// group degrade to duplicated no-ops.
type Store interface {
	// Get returns the record by id, or found=false when it does not exist.
	Get(ctx context.Context, id string) (Article, bool, error)

	// SearchNeighbors returns up to k records nearest to the given
	// embedding by cosine similarity, descending, excluding excludeID.
	// Both processed and unprocessed records are returned: a new article
	// may duplicate an already-canonicalized older story.
	SearchNeighbors(ctx context.Context, embedding []float32, k int, excludeID string) ([]Candidate, error)

	// Update applies the canonical-record mutation to the record with the
	// given id.
	Update(ctx context.Context, id string, update CanonicalUpdate) error

	// Delete removes the record. Missing records are treated as already
	// deleted and return nil.
	Delete(ctx context.Context, id string) error
}
