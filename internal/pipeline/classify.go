package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AllowedCategories is the closed label set articles are classified into.
var AllowedCategories = []string{"sports", "lifestyle", "music", "finance", "other"}

const (
	DefaultClassifyBatchSize = 25
	classifyPreviewChars     = 500

	classifySystemPrompt = `You classify news articles into exactly one category.
Allowed categories: sports, lifestyle, music, finance, other.
Respond with a single JSON object: {"category": "<one allowed category>", "confidence": <0.0-1.0>}.
Respond with JSON only, no prose.`
)

type ClassifyOptions struct {
	Limit     int
	BatchSize int
	Model     string
}

type ClassifyResult struct {
	Processed  int
	Classified int
	Failed     int
}

type unclassifiedArticle struct {
	ArticleID      string
	Title          string
	ContentPreview string
}

type classificationLabel struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ClassifyPending labels articles that have no category yet. Failures on a
// single article are counted and the batch continues; the article stays
// unclassified and is retried on the next sweep.
func (s *Service) ClassifyPending(ctx context.Context, opts ClassifyOptions) (ClassifyResult, error) {
	if s == nil || s.pool == nil {
		return ClassifyResult{}, fmt.Errorf("pipeline service is not initialized")
	}
	if s.llm == nil {
		return ClassifyResult{}, fmt.Errorf("llm client is not configured")
	}
	if opts.Limit <= 0 {
		return ClassifyResult{}, nil
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultClassifyBatchSize
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return ClassifyResult{}, fmt.Errorf("classification model is required")
	}

	var result ClassifyResult
	for result.Processed < opts.Limit {
		remaining := opts.Limit - result.Processed
		articles, err := s.selectUnclassified(ctx, min(batchSize, remaining))
		if err != nil {
			return result, err
		}
		if len(articles) == 0 {
			break
		}

		for _, article := range articles {
			result.Processed++

			label, err := s.classifyOne(ctx, model, article)
			if err != nil {
				result.Failed++
				s.logger.Warn().
					Err(err).
					Str("article_id", article.ArticleID).
					Msg("classification failed; will retry on next sweep")
				continue
			}

			if err := s.storeCategory(ctx, article.ArticleID, label); err != nil {
				result.Failed++
				return result, err
			}
			result.Classified++
		}
	}

	return result, nil
}

func (s *Service) selectUnclassified(ctx context.Context, limit int) ([]unclassifiedArticle, error) {
	const q = `
SELECT article_id, title, content_preview
FROM news.articles
WHERE category IS NULL
ORDER BY created_at, article_id
LIMIT $1
`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("select unclassified articles: %w", err)
	}
	defer rows.Close()

	articles := make([]unclassifiedArticle, 0, limit)
	for rows.Next() {
		var a unclassifiedArticle
		if err := rows.Scan(&a.ArticleID, &a.Title, &a.ContentPreview); err != nil {
			return nil, fmt.Errorf("scan unclassified article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unclassified articles: %w", err)
	}
	return articles, nil
}

func (s *Service) classifyOne(ctx context.Context, model string, article unclassifiedArticle) (classificationLabel, error) {
	preview := article.ContentPreview
	if len(preview) > classifyPreviewChars {
		preview = preview[:classifyPreviewChars]
	}

	resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Title: %s\n\n%s", article.Title, preview)},
		},
	})
	if err != nil {
		return classificationLabel{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return classificationLabel{}, fmt.Errorf("chat completion returned no choices")
	}

	return parseClassificationLabel(resp.Choices[0].Message.Content)
}

// parseClassificationLabel reads the model's JSON reply. Unknown categories
// collapse to "other"; confidence is clamped into [0, 1].
func parseClassificationLabel(content string) (classificationLabel, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var label classificationLabel
	if err := json.Unmarshal([]byte(trimmed), &label); err != nil {
		return classificationLabel{}, fmt.Errorf("decode classification reply: %w", err)
	}

	label.Category = strings.TrimSpace(strings.ToLower(label.Category))
	if !isAllowedCategory(label.Category) {
		label.Category = "other"
	}
	if label.Confidence < 0 {
		label.Confidence = 0
	}
	if label.Confidence > 1 {
		label.Confidence = 1
	}
	return label, nil
}

func isAllowedCategory(category string) bool {
	for _, allowed := range AllowedCategories {
		if category == allowed {
			return true
		}
	}
	return false
}

func (s *Service) storeCategory(ctx context.Context, articleID string, label classificationLabel) error {
	const q = `
UPDATE news.articles
SET category = $2, category_confidence = $3, updated_at = $4
WHERE article_id = $1
  AND category IS NULL
`

	_, err := s.pool.Exec(ctx, q, articleID, label.Category, label.Confidence, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store category for article %s: %w", articleID, err)
	}
	return nil
}
