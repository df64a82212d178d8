package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ArticleListOptions controls the user-facing article listing. Only
// processed articles are ever returned; records mid-pipeline stay hidden.
type ArticleListOptions struct {
	Category      string
	Source        string
	Query         string
	HighlightOnly bool
	Page          int
	PageSize      int
}

// ArticleListItem is the browse/search projection of a canonical article.
type ArticleListItem struct {
	ArticleID       string     `json:"article_id"`
	Title           string     `json:"title"`
	ContentPreview  string     `json:"content_preview"`
	URL             string     `json:"url"`
	Source          string     `json:"source"`
	PublishedAt     time.Time  `json:"published_at"`
	Category        *string    `json:"category,omitempty"`
	SourceList      []string   `json:"source_list"`
	OccurrenceCount int        `json:"occurrence_count"`
	Highlight       bool       `json:"highlight"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

// PipelineStats summarizes the backlog of every pipeline stage.
type PipelineStats struct {
	Articles             int64            `json:"articles"`
	Processed            int64            `json:"processed"`
	PendingClassify      int64            `json:"pending_classify"`
	PendingEmbed         int64            `json:"pending_embed"`
	PendingDedup         int64            `json:"pending_dedup"`
	Highlights           int64            `json:"highlights"`
	MultiSourceStories   int64            `json:"multi_source_stories"`
	ArticlesPerCategory  map[string]int64 `json:"articles_per_category"`
	LastArticleCreatedAt *time.Time       `json:"last_article_created_at,omitempty"`
}

// ListArticles pages through processed articles, newest first.
func (p *Pool) ListArticles(ctx context.Context, opts ArticleListOptions) ([]ArticleListItem, int64, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	category := strings.TrimSpace(strings.ToLower(opts.Category))
	source := strings.TrimSpace(opts.Source)
	query := strings.TrimSpace(opts.Query)

	const countQ = `
SELECT COUNT(*)
FROM news.articles a
WHERE a.processed = true
  AND ($1 = '' OR a.category = $1)
  AND ($2 = '' OR a.source = $2 OR jsonb_exists(a.source_list, $2))
  AND ($3 = '' OR a.title ILIKE '%' || $3 || '%')
  AND ($4 = false OR a.highlight = true)
`

	var total int64
	if err := p.QueryRow(ctx, countQ, category, source, query, opts.HighlightOnly).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	const q = `
SELECT
	a.article_id,
	a.title,
	a.content_preview,
	a.url,
	a.source,
	a.published_at,
	a.category,
	a.source_list,
	a.occurrence_count,
	a.highlight,
	a.processed_at
FROM news.articles a
WHERE a.processed = true
  AND ($1 = '' OR a.category = $1)
  AND ($2 = '' OR a.source = $2 OR jsonb_exists(a.source_list, $2))
  AND ($3 = '' OR a.title ILIKE '%' || $3 || '%')
  AND ($4 = false OR a.highlight = true)
ORDER BY a.published_at DESC, a.article_id DESC
LIMIT $5 OFFSET $6
`

	rows, err := p.Query(ctx, q, category, source, query, opts.HighlightOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items, err := scanArticleListItems(rows, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetArticle loads one processed article by id.
func (p *Pool) GetArticle(ctx context.Context, id string) (ArticleListItem, bool, error) {
	const q = `
SELECT
	a.article_id,
	a.title,
	a.content_preview,
	a.url,
	a.source,
	a.published_at,
	a.category,
	a.source_list,
	a.occurrence_count,
	a.highlight,
	a.processed_at
FROM news.articles a
WHERE a.article_id = $1
  AND a.processed = true
`

	var item ArticleListItem
	var sourceListJSON []byte
	err := p.QueryRow(ctx, q, id).Scan(
		&item.ArticleID,
		&item.Title,
		&item.ContentPreview,
		&item.URL,
		&item.Source,
		&item.PublishedAt,
		&item.Category,
		&sourceListJSON,
		&item.OccurrenceCount,
		&item.Highlight,
		&item.ProcessedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return ArticleListItem{}, false, nil
		}
		return ArticleListItem{}, false, fmt.Errorf("get article %s: %w", id, err)
	}
	if err := json.Unmarshal(sourceListJSON, &item.SourceList); err != nil {
		return ArticleListItem{}, false, fmt.Errorf("decode source_list for article %s: %w", id, err)
	}
	return item, true, nil
}

// SearchArticlesByEmbedding returns the processed articles nearest to the
// query vector, with their cosine similarity.
func (p *Pool) SearchArticlesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]ArticleSearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	vectorLiteral, err := VectorLiteral(embedding)
	if err != nil {
		return nil, fmt.Errorf("encode query vector: %w", err)
	}

	const q = `
SELECT
	a.article_id,
	a.title,
	a.content_preview,
	a.url,
	a.source,
	a.published_at,
	a.category,
	a.source_list,
	a.occurrence_count,
	a.highlight,
	a.processed_at,
	(1 - (a.embedding <=> $1::vector))::double precision AS similarity
FROM news.articles a
WHERE a.processed = true
  AND a.embedding IS NOT NULL
ORDER BY a.embedding <=> $1::vector ASC
LIMIT $2
`

	rows, err := p.Query(ctx, q, vectorLiteral, limit)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer rows.Close()

	hits := make([]ArticleSearchHit, 0, limit)
	for rows.Next() {
		var hit ArticleSearchHit
		var sourceListJSON []byte
		if err := rows.Scan(
			&hit.ArticleID,
			&hit.Title,
			&hit.ContentPreview,
			&hit.URL,
			&hit.Source,
			&hit.PublishedAt,
			&hit.Category,
			&sourceListJSON,
			&hit.OccurrenceCount,
			&hit.Highlight,
			&hit.ProcessedAt,
			&hit.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		if err := json.Unmarshal(sourceListJSON, &hit.SourceList); err != nil {
			return nil, fmt.Errorf("decode search hit source_list: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}
	return hits, nil
}

// ArticleSearchHit is an ArticleListItem with a similarity score.
type ArticleSearchHit struct {
	ArticleListItem
	Similarity float64 `json:"similarity"`
}

// Stats reports per-stage backlog counts for observability.
func (p *Pool) Stats(ctx context.Context) (PipelineStats, error) {
	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE processed = true),
	COUNT(*) FILTER (WHERE category IS NULL),
	COUNT(*) FILTER (WHERE embedding IS NULL),
	COUNT(*) FILTER (WHERE processed = false AND embedding IS NOT NULL),
	COUNT(*) FILTER (WHERE highlight = true),
	COUNT(*) FILTER (WHERE occurrence_count > 1),
	MAX(created_at)
FROM news.articles
`

	var stats PipelineStats
	if err := p.QueryRow(ctx, q).Scan(
		&stats.Articles,
		&stats.Processed,
		&stats.PendingClassify,
		&stats.PendingEmbed,
		&stats.PendingDedup,
		&stats.Highlights,
		&stats.MultiSourceStories,
		&stats.LastArticleCreatedAt,
	); err != nil {
		return PipelineStats{}, fmt.Errorf("query article stats: %w", err)
	}

	const categoryQ = `
SELECT category, COUNT(*)
FROM news.articles
WHERE category IS NOT NULL AND processed = true
GROUP BY category
`

	rows, err := p.Query(ctx, categoryQ)
	if err != nil {
		return PipelineStats{}, fmt.Errorf("query category stats: %w", err)
	}
	defer rows.Close()

	stats.ArticlesPerCategory = make(map[string]int64)
	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return PipelineStats{}, fmt.Errorf("scan category stat: %w", err)
		}
		stats.ArticlesPerCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return PipelineStats{}, fmt.Errorf("iterate category stats: %w", err)
	}
	return stats, nil
}

func scanArticleListItems(rows *Rows, capacity int) ([]ArticleListItem, error) {
	items := make([]ArticleListItem, 0, capacity)
	for rows.Next() {
		var item ArticleListItem
		var sourceListJSON []byte
		if err := rows.Scan(
			&item.ArticleID,
			&item.Title,
			&item.ContentPreview,
			&item.URL,
			&item.Source,
			&item.PublishedAt,
			&item.Category,
			&sourceListJSON,
			&item.OccurrenceCount,
			&item.Highlight,
			&item.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if err := json.Unmarshal(sourceListJSON, &item.SourceList); err != nil {
			return nil, fmt.Errorf("decode article source_list: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return items, nil
}
