package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/DebritB/NewsRAG/internal/db"
)

const (
	DefaultEmbeddingBatchSize  = 32
	DefaultEmbeddingDimensions = 1024
)

type EmbedOptions struct {
	Limit      int
	BatchSize  int
	Model      string
	Dimensions int
}

type EmbedResult struct {
	Processed int
	Embedded  int
	Skipped   int
	Failed    int
}

type pendingEmbeddingArticle struct {
	ArticleID      string
	Title          string
	ContentPreview string
}

// EmbedPending generates embeddings for articles that have none. The write
// is guarded on `embedding IS NULL`, so a concurrent sweep embedding the
// same article degrades to a skipped no-op.
func (s *Service) EmbedPending(ctx context.Context, opts EmbedOptions) (EmbedResult, error) {
	if s == nil || s.pool == nil {
		return EmbedResult{}, fmt.Errorf("pipeline service is not initialized")
	}
	if s.llm == nil {
		return EmbedResult{}, fmt.Errorf("llm client is not configured")
	}
	if opts.Limit <= 0 {
		return EmbedResult{}, nil
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	dimensions := opts.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return EmbedResult{}, fmt.Errorf("embedding model is required")
	}

	var result EmbedResult
	for result.Processed < opts.Limit {
		remaining := opts.Limit - result.Processed
		articles, err := s.selectPendingEmbedding(ctx, min(batchSize, remaining))
		if err != nil {
			return result, err
		}
		if len(articles) == 0 {
			break
		}

		texts := make([]string, 0, len(articles))
		for _, article := range articles {
			texts = append(texts, embeddingInput(article.Title, article.ContentPreview))
		}

		resp, err := s.llm.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts,
			Model:      openai.EmbeddingModel(model),
			Dimensions: dimensions,
		})
		if err != nil {
			return result, fmt.Errorf("embedding request: %w", err)
		}
		if len(resp.Data) != len(articles) {
			return result, fmt.Errorf("embedding response count mismatch: requested=%d returned=%d", len(articles), len(resp.Data))
		}

		for i, article := range articles {
			result.Processed++

			vector := resp.Data[i].Embedding
			if len(vector) != dimensions {
				result.Failed++
				return result, fmt.Errorf("article_id=%s expected %d dimensions, got %d", article.ArticleID, dimensions, len(vector))
			}

			vectorLiteral, err := db.VectorLiteral(vector)
			if err != nil {
				result.Failed++
				return result, fmt.Errorf("article_id=%s invalid embedding vector: %w", article.ArticleID, err)
			}

			stored, err := s.storeEmbedding(ctx, article.ArticleID, vectorLiteral)
			if err != nil {
				result.Failed++
				return result, err
			}
			if stored {
				result.Embedded++
			} else {
				result.Skipped++
			}
		}
	}

	return result, nil
}

// EmbedQuery embeds free text so it can be compared against stored article
// vectors. Used by the search endpoint.
func (s *Service) EmbedQuery(ctx context.Context, text, model string, dimensions int) ([]float32, error) {
	if s == nil || s.llm == nil {
		return nil, fmt.Errorf("llm client is not configured")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("query text is empty")
	}
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	resp, err := s.llm.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{trimmed},
		Model:      openai.EmbeddingModel(model),
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("embedding response count mismatch: requested=1 returned=%d", len(resp.Data))
	}
	vector := resp.Data[0].Embedding
	if len(vector) != dimensions {
		return nil, fmt.Errorf("expected %d dimensions, got %d", dimensions, len(vector))
	}
	return vector, nil
}

func (s *Service) selectPendingEmbedding(ctx context.Context, limit int) ([]pendingEmbeddingArticle, error) {
	const q = `
SELECT article_id, title, content_preview
FROM news.articles
WHERE embedding IS NULL
ORDER BY created_at, article_id
LIMIT $1
`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select articles pending embedding: %w", err)
	}
	defer rows.Close()

	articles := make([]pendingEmbeddingArticle, 0, limit)
	for rows.Next() {
		var a pendingEmbeddingArticle
		if err := rows.Scan(&a.ArticleID, &a.Title, &a.ContentPreview); err != nil {
			return nil, fmt.Errorf("scan article pending embedding: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles pending embedding: %w", err)
	}
	return articles, nil
}

func (s *Service) storeEmbedding(ctx context.Context, articleID, vectorLiteral string) (bool, error) {
	const q = `
UPDATE news.articles
SET embedding = $2::vector, updated_at = $3
WHERE article_id = $1
  AND embedding IS NULL
`

	tag, err := s.pool.Exec(ctx, q, articleID, vectorLiteral, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("store embedding for article %s: %w", articleID, err)
	}
	return tag.RowsAffected() == 1, nil
}
