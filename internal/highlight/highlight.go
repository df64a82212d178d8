package highlight

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/globaltime"
)

const (
	// RecencyWindow bounds which articles compete for highlight slots.
	RecencyWindow = 48 * time.Hour
	// PerCategoryCount is how many highlights each category carries.
	PerCategoryCount = 5

	keywordWeight   = 0.6
	frequencyWeight = 0.4
	frequencyCap    = 10
)

var breakingKeywords = []string{
	"breaking", "alert", "exclusive", "just in", "major", "urgent",
}

var keywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(breakingKeywords))
	for _, keyword := range breakingKeywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(keyword)+`\b`))
	}
	return patterns
}

type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewService(pool *db.Pool, logger zerolog.Logger) *Service {
	return &Service{
		pool:   pool,
		logger: logger,
	}
}

type Result struct {
	Considered  int
	Reset       int
	Highlighted int
}

type recentArticle struct {
	ArticleID       string
	Title           string
	ContentPreview  string
	Category        string
	OccurrenceCount int
}

// Refresh recomputes the highlight flags: every processed article published
// within the recency window competes, the top five per category win, the
// rest are reset. Safe to re-run; the same inputs produce the same flags.
func (s *Service) Refresh(ctx context.Context) (Result, error) {
	if s == nil || s.pool == nil {
		return Result{}, fmt.Errorf("highlight service is not initialized")
	}

	cutoff := globaltime.UTC().Add(-RecencyWindow)
	articles, err := s.selectRecent(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}
	if len(articles) == 0 {
		return Result{}, nil
	}

	winners := pickHighlights(articles, PerCategoryCount)

	reset, err := s.resetRecent(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}
	highlighted, err := s.markHighlights(ctx, winners)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info().
		Int("considered", len(articles)).
		Int("reset", reset).
		Int("highlighted", highlighted).
		Msg("highlights refreshed")

	return Result{
		Considered:  len(articles),
		Reset:       reset,
		Highlighted: highlighted,
	}, nil
}

// score weighs breaking-news keywords in the text against how many outlets
// reported the story.
func score(title, preview string, occurrenceCount int) float64 {
	content := strings.ToLower(title + " " + preview)

	var total float64
	for _, pattern := range keywordPatterns {
		if pattern.MatchString(content) {
			total += keywordWeight
			break
		}
	}

	if occurrenceCount < 1 {
		occurrenceCount = 1
	}
	frequency := float64(occurrenceCount) / frequencyCap
	if frequency > 1 {
		frequency = 1
	}
	total += frequency * frequencyWeight

	return total
}

// pickHighlights returns the ids of the top-n scored articles per category.
// Ties break on article id so repeated refreshes pick the same winners.
func pickHighlights(articles []recentArticle, perCategory int) []string {
	byCategory := make(map[string][]recentArticle)
	for _, article := range articles {
		category := article.Category
		if category == "" {
			category = "other"
		}
		byCategory[category] = append(byCategory[category], article)
	}

	var winners []string
	for _, group := range byCategory {
		sort.Slice(group, func(i, j int) bool {
			si := score(group[i].Title, group[i].ContentPreview, group[i].OccurrenceCount)
			sj := score(group[j].Title, group[j].ContentPreview, group[j].OccurrenceCount)
			if si != sj {
				return si > sj
			}
			return group[i].ArticleID < group[j].ArticleID
		})
		limit := min(perCategory, len(group))
		for _, article := range group[:limit] {
			winners = append(winners, article.ArticleID)
		}
	}
	sort.Strings(winners)
	return winners
}

func (s *Service) selectRecent(ctx context.Context, cutoff time.Time) ([]recentArticle, error) {
	const q = `
SELECT article_id, title, content_preview, COALESCE(category, ''), occurrence_count
FROM news.articles
WHERE processed = true
  AND published_at >= $1
`

	rows, err := s.pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select recent articles: %w", err)
	}
	defer rows.Close()

	var articles []recentArticle
	for rows.Next() {
		var a recentArticle
		if err := rows.Scan(&a.ArticleID, &a.Title, &a.ContentPreview, &a.Category, &a.OccurrenceCount); err != nil {
			return nil, fmt.Errorf("scan recent article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent articles: %w", err)
	}
	return articles, nil
}

func (s *Service) resetRecent(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `
UPDATE news.articles
SET highlight = false, updated_at = $2
WHERE processed = true
  AND published_at >= $1
  AND highlight = true
`

	tag, err := s.pool.Exec(ctx, q, cutoff, globaltime.UTC())
	if err != nil {
		return 0, fmt.Errorf("reset highlights: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Service) markHighlights(ctx context.Context, ids []string) (int, error) {
	marked := 0
	for _, id := range ids {
		const q = `
UPDATE news.articles
SET highlight = true, updated_at = $2
WHERE article_id = $1
`
		tag, err := s.pool.Exec(ctx, q, id, globaltime.UTC())
		if err != nil {
			return marked, fmt.Errorf("mark highlight %s: %w", id, err)
		}
		marked += int(tag.RowsAffected())
	}
	return marked, nil
}
