package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/DebritB/NewsRAG/internal/db"
	"github.com/DebritB/NewsRAG/internal/globaltime"
	"github.com/DebritB/NewsRAG/internal/pipeline"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
	maxSearchLimit  = 50
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	EmbeddingModel      string
	EmbeddingDimensions int
}

type Server struct {
	pool     *db.Pool
	pipeline *pipeline.Service
	logger   zerolog.Logger
	opts     Options
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func NewServer(pool *db.Pool, pipelineService *pipeline.Service, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:     pool,
		pipeline: pipelineService,
		logger:   logger,
		opts: Options{
			Host:                host,
			Port:                port,
			ReadTimeout:         readTimeout,
			WriteTimeout:        writeTimeout,
			ShutdownTimeout:     shutdownTimeout,
			EmbeddingModel:      opts.EmbeddingModel,
			EmbeddingDimensions: opts.EmbeddingDimensions,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api")
	api.GET("/articles", s.handleArticles)
	api.GET("/articles/:article_id", s.handleArticleDetail)
	api.GET("/highlights", s.handleHighlights)
	api.GET("/stats", s.handleStats)
	api.POST("/search", s.handleSearch)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("newsrag api started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("newsrag api stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check ping failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "newsrag",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleArticles(c echo.Context) error {
	opts, fieldErrors := parseListOptions(c)
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	items, total, err := s.pool.ListArticles(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("query articles failed")
		return internalError(c, "Failed to load articles")
	}

	return success(c, map[string]any{
		"items":      items,
		"pagination": paginationEnvelope(opts.Page, opts.PageSize, total),
		"filters": map[string]any{
			"category":  opts.Category,
			"source":    opts.Source,
			"q":         opts.Query,
			"highlight": opts.HighlightOnly,
		},
	})
}

func (s *Server) handleArticleDetail(c echo.Context) error {
	articleID := strings.TrimSpace(c.Param("article_id"))
	if articleID == "" {
		return failValidation(c, map[string]string{"article_id": "is required"})
	}

	item, found, err := s.pool.GetArticle(c.Request().Context(), articleID)
	if err != nil {
		s.logger.Error().Err(err).Str("article_id", articleID).Msg("query article failed")
		return internalError(c, "Failed to load article")
	}
	if !found {
		return failNotFound(c, "Article not found")
	}
	return success(c, item)
}

func (s *Server) handleHighlights(c echo.Context) error {
	opts, fieldErrors := parseListOptions(c)
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}
	opts.HighlightOnly = true

	items, total, err := s.pool.ListArticles(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("query highlights failed")
		return internalError(c, "Failed to load highlights")
	}

	return success(c, map[string]any{
		"items":      items,
		"pagination": paginationEnvelope(opts.Page, opts.PageSize, total),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.Stats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return failValidation(c, map[string]string{"query": "is required"})
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		return failValidation(c, map[string]string{"limit": fmt.Sprintf("must be between 1 and %d", maxSearchLimit)})
	}
	if s.pipeline == nil {
		return internalError(c, "Search is not configured")
	}

	embedding, err := s.pipeline.EmbedQuery(c.Request().Context(), query, s.opts.EmbeddingModel, s.opts.EmbeddingDimensions)
	if err != nil {
		s.logger.Error().Err(err).Msg("embed search query failed")
		return internalError(c, "Failed to embed query")
	}

	hits, err := s.pool.SearchArticlesByEmbedding(c.Request().Context(), embedding, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("search articles failed")
		return internalError(c, "Failed to search articles")
	}

	return success(c, map[string]any{
		"items": hits,
		"query": query,
		"limit": limit,
	})
}

func parseListOptions(c echo.Context) (db.ArticleListOptions, map[string]string) {
	fieldErrors := map[string]string{}

	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		fieldErrors["page"] = err.Error()
	}

	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		fieldErrors["page_size"] = err.Error()
	}

	highlightOnly := false
	if raw := strings.TrimSpace(c.QueryParam("highlight")); raw != "" {
		highlightOnly, err = strconv.ParseBool(raw)
		if err != nil {
			fieldErrors["highlight"] = "must be a boolean"
		}
	}

	if len(fieldErrors) > 0 {
		return db.ArticleListOptions{}, fieldErrors
	}

	return db.ArticleListOptions{
		Category:      strings.TrimSpace(strings.ToLower(c.QueryParam("category"))),
		Source:        strings.TrimSpace(c.QueryParam("source")),
		Query:         strings.TrimSpace(c.QueryParam("q")),
		HighlightOnly: highlightOnly,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func paginationEnvelope(page, pageSize int, total int64) map[string]any {
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total_items": total,
		"total_pages": totalPages,
	}
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
