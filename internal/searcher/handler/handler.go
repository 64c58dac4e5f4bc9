// Package handler exposes the query parser over HTTP: parse trees, query
// classes, and typo-fix splicing.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/fixer"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/tracing"
)

// QueryParser is implemented by *parser.Parser.
type QueryParser interface {
	Parse(raw string) (*ast.ParsedQuery, error)
}

// ParseCache is implemented by *cache.ParseCache.
type ParseCache interface {
	GetOrCompute(ctx context.Context, query string, compute func() ([]byte, error)) ([]byte, bool, error)
	Invalidate(ctx context.Context) (int64, error)
	Stats() cache.Stats
}

// Tracker is implemented by the analytics batch collector.
type Tracker interface {
	Track(event analytics.ParseEvent)
}

// Handler serves the parse, classify, fix and cache endpoints.
type Handler struct {
	parser    QueryParser
	cache     ParseCache
	collector Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option wires optional dependencies into a Handler.
type Option func(*Handler)

func WithCache(c ParseCache) Option { return func(h *Handler) { h.cache = c } }

func WithCollector(t Tracker) Option { return func(h *Handler) { h.collector = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

func New(p QueryParser, opts ...Option) *Handler {
	h := &Handler{
		parser: p,
		logger: slog.Default().With("component", "parse-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/parse", h.Parse)
	mux.HandleFunc("GET /api/v1/classify", h.Classify)
	mux.HandleFunc("GET /api/v1/fix", h.Fix)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// docSummary is the part of a serialized parse the handler reports on.
type docSummary struct {
	Warnings []struct {
		Message string `json:"message"`
	} `json:"warnings"`
	QueryClasses []string `json:"queryClasses"`
	FeaturesUsed []string `json:"featuresUsed"`
}

// Parse returns the serialized parse tree of ?q=. An empty q is a valid
// query; a missing one is not.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context())
	ctx, span := tracing.StartSpan(r.Context(), "parse_request", middleware.GetRequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	query, ok := queryParam(r)
	if !ok {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}

	compute := func() ([]byte, error) {
		_, parseSpan := tracing.StartSpan(ctx, "parse", "")
		pq, err := h.parse(query)
		parseSpan.End()
		if err != nil {
			return nil, err
		}
		_, serializeSpan := tracing.StartSpan(ctx, "serialize", "")
		defer serializeSpan.End()
		return json.Marshal(pq.ToArray())
	}

	var (
		doc      []byte
		cacheHit bool
		err      error
	)
	if h.cache != nil {
		doc, cacheHit, err = h.cache.GetOrCompute(ctx, query, compute)
	} else {
		doc, err = compute()
	}
	latency := time.Since(start)
	span.SetAttr("cache", cacheStatus(cacheHit))

	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, apperrors.ErrQueryTooLong) {
			outcome = metrics.OutcomeTooLong
		} else {
			log.Error("parse failed", "error", err)
		}
		h.observe(metrics.ParseObservation{Outcome: outcome, CacheStatus: cacheStatus(cacheHit), Duration: latency})
		h.track(analytics.ParseEvent{
			Query:         query,
			Outcome:       outcome,
			LatencyMicros: latency.Microseconds(),
			Timestamp:     time.Now().UTC(),
			RequestID:     middleware.GetRequestID(ctx),
		})
		h.writeError(w, err)
		return
	}

	var summary docSummary
	if err := json.Unmarshal(doc, &summary); err != nil {
		log.Error("undecodable parse document", "error", err)
		h.writeError(w, fmt.Errorf("%w: corrupt parse document", apperrors.ErrInternal))
		return
	}
	codes := make([]string, 0, len(summary.Warnings))
	for _, wr := range summary.Warnings {
		codes = append(codes, wr.Message)
	}
	outcome := metrics.OutcomeOK
	if len(codes) > 0 {
		outcome = metrics.OutcomeWarnings
	}

	h.observe(metrics.ParseObservation{
		Outcome:     outcome,
		CacheStatus: cacheStatus(cacheHit),
		Duration:    latency,
		Warnings:    codes,
		Classes:     summary.QueryClasses,
		Features:    summary.FeaturesUsed,
	})
	h.track(analytics.ParseEvent{
		Query:         query,
		Outcome:       outcome,
		CacheHit:      cacheHit,
		Classes:       summary.QueryClasses,
		Warnings:      codes,
		Features:      summary.FeaturesUsed,
		LatencyMicros: latency.Microseconds(),
		Timestamp:     time.Now().UTC(),
		RequestID:     middleware.GetRequestID(ctx),
	})
	log.Debug("query parsed", "outcome", outcome, "cache_hit", cacheHit, "latency_us", latency.Microseconds())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Parse-Cache", cacheStatus(cacheHit))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		log.Error("failed to write response", "error", err)
	}
}

// Classify lists the classes of ?q=, or with ?class= reports membership of
// that one class.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	query, ok := queryParam(r)
	if !ok {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	pq, err := h.parse(query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	class := r.URL.Query().Get("class")
	if class == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{"query": query, "classes": pq.Classes()})
		return
	}
	match, err := pq.IsQueryOfClass(class)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %q", apperrors.ErrUnknownClassifier, class))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"query": query, "class": class, "match": match})
}

// Fix reports the fixable part of ?q=. With ?replacement= it returns the
// query with that part replaced.
func (h *Handler) Fix(w http.ResponseWriter, r *http.Request) {
	query, ok := queryParam(r)
	if !ok {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	pq, err := h.parse(query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	f := fixer.New(pq)

	if !r.URL.Query().Has("replacement") {
		part, fixable := f.FixablePart()
		h.writeJSON(w, http.StatusOK, map[string]any{"query": query, "fixable": fixable, "part": part})
		return
	}
	fixed, err := f.Fix(r.URL.Query().Get("replacement"))
	if err != nil {
		if errors.Is(err, fixer.ErrNotFixable) {
			err = fmt.Errorf("%w: %v", apperrors.ErrNotFixable, err)
		}
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"query": query, "fixed": fixed})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	var hitRate float64
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"skipped":  stats.Skipped,
		"breaker":  stats.Breaker,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// parse maps parser errors onto the service's error sentinels.
func (h *Handler) parse(query string) (*ast.ParsedQuery, error) {
	pq, err := h.parser.Parse(query)
	if err == nil {
		return pq, nil
	}
	if errors.Is(err, parser.ErrQueryTooLong) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryTooLong, err)
	}
	return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
}

func (h *Handler) observe(o metrics.ParseObservation) {
	if h.metrics != nil {
		h.metrics.ObserveParse(o)
	}
}

func (h *Handler) track(e analytics.ParseEvent) {
	if h.collector != nil {
		h.collector.Track(e)
	}
}

func queryParam(r *http.Request) (string, bool) {
	values := r.URL.Query()
	if !values.Has("q") {
		return "", false
	}
	return values.Get("q"), true
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{
		"error": message,
		"code":  apperrors.Code(err),
	})
}
