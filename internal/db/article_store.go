package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DebritB/NewsRAG/internal/dedup"
)

// ArticleStore adapts the Postgres pool to the dedup engine's store
// contract. Every mutation is a single-statement, single-record operation;
// the engine's idempotence guarantees rest on that granularity.
type ArticleStore struct {
	pool *Pool
}

func NewArticleStore(pool *Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

var _ dedup.Store = (*ArticleStore)(nil)

func (s *ArticleStore) Get(ctx context.Context, id string) (dedup.Article, bool, error) {
	const q = `
SELECT
	article_id,
	title,
	content_preview,
	source,
	published_at,
	COALESCE(category, ''),
	embedding::text,
	processed,
	source_list,
	occurrence_count
FROM news.articles
WHERE article_id = $1
`

	var (
		article        dedup.Article
		embeddingText  *string
		sourceListJSON []byte
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&article.ID,
		&article.Title,
		&article.ContentPreview,
		&article.Source,
		&article.PublishedAt,
		&article.Category,
		&embeddingText,
		&article.Processed,
		&sourceListJSON,
		&article.OccurrenceCount,
	)
	if err != nil {
		if IsNoRows(err) {
			return dedup.Article{}, false, nil
		}
		return dedup.Article{}, false, fmt.Errorf("get article %s: %w", id, err)
	}

	if embeddingText != nil && *embeddingText != "" {
		embedding, err := ParseVectorLiteral(*embeddingText)
		if err != nil {
			return dedup.Article{}, false, fmt.Errorf("decode embedding for article %s: %w", id, err)
		}
		article.Embedding = embedding
	}
	if err := json.Unmarshal(sourceListJSON, &article.SourceList); err != nil {
		return dedup.Article{}, false, fmt.Errorf("decode source_list for article %s: %w", id, err)
	}
	return article, true, nil
}

func (s *ArticleStore) SearchNeighbors(ctx context.Context, embedding []float32, k int, excludeID string) ([]dedup.Candidate, error) {
	if k <= 0 {
		k = dedup.DefaultNumCandidates
	}
	vectorLiteral, err := VectorLiteral(embedding)
	if err != nil {
		return nil, fmt.Errorf("encode query vector: %w", err)
	}

	// Processed and unprocessed rows alike: a fresh article may duplicate
	// a story canonicalized on an earlier sweep.
	const q = `
SELECT
	article_id,
	title,
	content_preview,
	source,
	published_at,
	COALESCE(category, ''),
	processed,
	source_list,
	occurrence_count,
	(1 - (embedding <=> $1::vector))::double precision AS similarity
FROM news.articles
WHERE article_id <> $2
  AND embedding IS NOT NULL
ORDER BY embedding <=> $1::vector ASC
LIMIT $3
`

	rows, err := s.pool.Query(ctx, q, vectorLiteral, excludeID, k)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	candidates := make([]dedup.Candidate, 0, k)
	for rows.Next() {
		var (
			c              dedup.Candidate
			sourceListJSON []byte
		)
		if err := rows.Scan(
			&c.Article.ID,
			&c.Article.Title,
			&c.Article.ContentPreview,
			&c.Article.Source,
			&c.Article.PublishedAt,
			&c.Article.Category,
			&c.Article.Processed,
			&sourceListJSON,
			&c.Article.OccurrenceCount,
			&c.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		if err := json.Unmarshal(sourceListJSON, &c.Article.SourceList); err != nil {
			return nil, fmt.Errorf("decode neighbor source_list: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return candidates, nil
}

func (s *ArticleStore) Update(ctx context.Context, id string, update dedup.CanonicalUpdate) error {
	sourceListJSON, err := json.Marshal(update.SourceList)
	if err != nil {
		return fmt.Errorf("encode source_list: %w", err)
	}

	const q = `
UPDATE news.articles
SET
	source_list = $2::jsonb,
	occurrence_count = $3,
	processed = $4,
	processed_at = COALESCE(processed_at, $5),
	deduplicated_at = $6,
	updated_at = $7
WHERE article_id = $1
`

	_, err = s.pool.Exec(
		ctx,
		q,
		id,
		string(sourceListJSON),
		update.OccurrenceCount,
		update.Processed,
		update.ProcessedAt,
		update.DeduplicatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	return nil
}

// Delete removes a merged-away article. Deleting a row that is already gone
// counts as success so overlapping sweeps can race on the same group.
func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM news.articles WHERE article_id = $1`
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return nil
}

// UnprocessedArticleIDs lists articles awaiting deduplication, oldest
// first, bounded by limit. Only embedded articles are eligible pivots.
func (s *ArticleStore) UnprocessedArticleIDs(ctx context.Context, limit int) ([]string, error) {
	const q = `
SELECT article_id
FROM news.articles
WHERE processed = false
  AND embedding IS NOT NULL
ORDER BY created_at, article_id
LIMIT $1
`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select unprocessed articles: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unprocessed article id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unprocessed article ids: %w", err)
	}
	return ids, nil
}
