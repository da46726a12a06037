// Package handler exposes the ranking engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidesearch/tidesearch/internal/analytics"
	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/search"
	"github.com/tidesearch/tidesearch/internal/search/cache"
	"github.com/tidesearch/tidesearch/internal/strategy"
	"github.com/tidesearch/tidesearch/pkg/config"
	apperrors "github.com/tidesearch/tidesearch/pkg/errors"
	"github.com/tidesearch/tidesearch/pkg/logger"
)

// Ranker is the engine surface the handler depends on.
type Ranker interface {
	Rank(ctx context.Context, query string, opts search.Options) (*search.Result, error)
}

type Handler struct {
	engine    Ranker
	idx       index.Reader
	cfg       *config.Config
	cache     *cache.ResultCache
	collector *analytics.Collector
	logger    *slog.Logger
}

func New(engine Ranker, idx index.Reader, cfg *config.Config, rc *cache.ResultCache, collector *analytics.Collector) *Handler {
	return &Handler{
		engine:    engine,
		idx:       idx,
		cfg:       cfg,
		cache:     rc,
		collector: collector,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

type searchResponse struct {
	*search.Result
	Query            string `json:"query"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// Search handles GET /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	opts, err := h.parseOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result *search.Result
	cacheHit := false
	if h.cache != nil {
		key := cache.Key(query, opts, h.idx.Revision(), h.cfg.Ranking.Revision)
		result, cacheHit, err = h.cache.GetOrCompute(ctx, key, func() (*search.Result, error) {
			return h.engine.Rank(ctx, query, opts)
		})
	} else {
		result, err = h.engine.Rank(ctx, query, opts)
	}
	if err != nil {
		log.Error("ranking failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	latency := time.Since(start)
	log.Info("query completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Hits),
		"retries", result.Retries,
		"cutoff", result.CutoffReached,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Query:         query,
			Strategy:      opts.Strategy.String(),
			TotalHits:     result.TotalHits,
			Retries:       result.Retries,
			CutoffReached: result.CutoffReached,
			CacheHit:      cacheHit,
			LatencyMs:     latency.Milliseconds(),
			Timestamp:     time.Now().UTC(),
		})
	}

	h.writeJSON(w, http.StatusOK, searchResponse{
		Result:           result,
		Query:            query,
		ProcessingTimeMs: latency.Milliseconds(),
	})
}

func (h *Handler) parseOptions(r *http.Request) (search.Options, error) {
	q := r.URL.Query()
	opts := search.Options{Limit: h.cfg.Search.DefaultLimit}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("limit must be a positive integer")
		}
		opts.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	mode, err := strategy.ParseMode(q.Get("strategy"))
	if err != nil {
		return opts, err
	}
	opts.Strategy = mode

	if s := q.Get("sort"); s != "" {
		spec, err := parseSort(s)
		if err != nil {
			return opts, err
		}
		opts.Sort = spec
	}
	opts.WithScore = q.Get("score") == "true"
	opts.WithScoreDetails = q.Get("scoreDetails") == "true"
	opts.ExhaustiveCount = q.Get("exhaustive") == "true"
	return opts, nil
}

// parseSort accepts "field", "field:asc" or "field:desc".
func parseSort(s string) (*search.SortSpec, error) {
	field, dir, found := strings.Cut(s, ":")
	if field == "" {
		return nil, fmt.Errorf("sort field must not be empty")
	}
	spec := &search.SortSpec{Field: field}
	if found {
		switch dir {
		case "asc":
		case "desc":
			spec.Descending = true
		default:
			return nil, fmt.Errorf("sort direction must be 'asc' or 'desc', got %q", dir)
		}
	}
	return spec, nil
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
