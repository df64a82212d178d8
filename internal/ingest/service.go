package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/globaltime"
	payloadschema "github.com/DebritB/NewsRAG/schema"
)

const (
	maxFeedBytes = 4 << 20
	maxPageBytes = 8 << 20
)

type Service struct {
	pool      *db.Pool
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

func NewService(pool *db.Pool, client *http.Client, userAgent string, logger zerolog.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Service{
		pool:      pool,
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Result aggregates counters across one scrape run.
type Result struct {
	OutletsPolled int
	ItemsSeen     int
	Inserted      int
	Duplicates    int
	Failed        int
}

// ScrapeAll polls every registered outlet and stores new articles. A failing
// outlet is logged and skipped; the run continues with the rest.
func (s *Service) ScrapeAll(ctx context.Context) (Result, error) {
	if s == nil || s.pool == nil {
		return Result{}, fmt.Errorf("ingest service is not initialized")
	}

	var result Result
	for _, outlet := range Outlets() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outletResult, err := s.scrapeOutlet(ctx, outlet)
		if err != nil {
			result.Failed++
			s.logger.Error().Err(err).Str("outlet", outlet.Name).Msg("outlet scrape failed")
			continue
		}
		result.OutletsPolled++
		result.ItemsSeen += outletResult.ItemsSeen
		result.Inserted += outletResult.Inserted
		result.Duplicates += outletResult.Duplicates
		result.Failed += outletResult.Failed
	}

	s.logger.Info().
		Int("outlets", result.OutletsPolled).
		Int("items", result.ItemsSeen).
		Int("inserted", result.Inserted).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Msg("scrape run finished")

	return result, nil
}

func (s *Service) scrapeOutlet(ctx context.Context, outlet Outlet) (Result, error) {
	payload, err := s.fetch(ctx, outlet.FeedURL, maxFeedBytes)
	if err != nil {
		return Result{}, fmt.Errorf("fetch feed %s: %w", outlet.Name, err)
	}

	items, err := ParseFeed(payload, globaltime.UTC())
	if err != nil {
		return Result{}, fmt.Errorf("parse feed %s: %w", outlet.Name, err)
	}

	result := Result{ItemsSeen: len(items)}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		inserted, err := s.storeItem(ctx, outlet, item)
		if err != nil {
			result.Failed++
			s.logger.Warn().Err(err).Str("outlet", outlet.Name).Str("url", item.URL).Msg("store item failed")
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}
	return result, nil
}

func (s *Service) storeItem(ctx context.Context, outlet Outlet, item FeedItem) (bool, error) {
	preview := StripHTML(item.Summary)
	if NeedsFullFetch(item.Summary) {
		if body, err := s.fetchBody(ctx, outlet, item.URL); err != nil {
			// Keep the thin summary rather than drop the article.
			s.logger.Debug().Err(err).Str("url", item.URL).Msg("full fetch failed, using feed summary")
		} else if len(body) > len(preview) {
			preview = body
		}
	}
	preview = Preview(preview)

	article := payloadschema.ScrapedArticle{
		PayloadVersion: "v1",
		Source:         outlet.Name,
		URL:            item.URL,
		Title:          item.Title,
		ContentPreview: preview,
		PublishedAt:    item.PublishedAt.UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(article)
	if err != nil {
		return false, fmt.Errorf("marshal article payload: %w", err)
	}
	validated, err := payloadschema.ValidateArticlePayload(payload)
	if err != nil {
		return false, fmt.Errorf("validate article payload: %w", err)
	}

	return s.insertArticle(ctx, validated, item.PublishedAt)
}

func (s *Service) insertArticle(ctx context.Context, article *payloadschema.ScrapedArticle, publishedAt time.Time) (bool, error) {
	const q = `
INSERT INTO news.articles (
	article_id,
	source,
	url,
	title,
	content_preview,
	published_at,
	source_list,
	occurrence_count,
	processed,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, 1, false, $8, $8)
ON CONFLICT (source, url) DO NOTHING
`

	sourceList, err := json.Marshal([]string{article.Source})
	if err != nil {
		return false, fmt.Errorf("marshal source list: %w", err)
	}

	now := globaltime.UTC()
	tag, err := s.pool.Exec(
		ctx,
		q,
		uuid.NewString(),
		article.Source,
		article.URL,
		article.Title,
		article.ContentPreview,
		publishedAt.UTC(),
		string(sourceList),
		now,
	)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Service) fetchBody(ctx context.Context, outlet Outlet, pageURL string) (string, error) {
	payload, err := s.fetch(ctx, pageURL, maxPageBytes)
	if err != nil {
		return "", err
	}
	return ExtractBody(bytes.NewReader(payload), outlet.Selectors)
}

func (s *Service) fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return payload, nil
}
