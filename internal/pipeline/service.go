package pipeline

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/DebritB/NewsRAG/internal/db"
)

// Service runs the enrichment stages (classification, embedding,
// deduplication) over pending articles. Each stage is a bounded batch pass
// meant to be invoked from a scheduled sweep and re-run until drained.
type Service struct {
	pool   *db.Pool
	llm    *openai.Client
	logger zerolog.Logger
}

func NewService(pool *db.Pool, llm *openai.Client, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		llm:    llm,
		logger: logger,
	}
}

// NewLLMClient builds the OpenAI-compatible client used for both
// classification and embeddings. A custom base URL points the client at a
// self-hosted compatible endpoint.
func NewLLMClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func embeddingInput(title, preview string) string {
	title = strings.TrimSpace(title)
	preview = strings.TrimSpace(preview)
	switch {
	case title == "" && preview == "":
		return ""
	case preview == "":
		return title
	case title == "":
		return preview
	default:
		return title + "\n\n" + preview
	}
}
