// Package analytics aggregates parse events published by the parser service:
// warning codes, query classes, features used, popular queries and parse
// latency.
package analytics

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/internal/searcher/ast"
)

// ParseEvent describes one parse request.
type ParseEvent struct {
	Query         string    `json:"query"`
	Outcome       string    `json:"outcome"`
	CacheHit      bool      `json:"cache_hit"`
	Classes       []string  `json:"classes,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	Features      []string  `json:"features,omitempty"`
	LatencyMicros int64     `json:"latency_us"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// Key spreads events over partitions by query.
func (e ParseEvent) Key() string { return e.Query }

// NewParseEvent builds the event for a successful parse. Warning codes are
// kept once per occurrence.
func NewParseEvent(pq *ast.ParsedQuery, outcome string, cacheHit bool, latency time.Duration, requestID string) ParseEvent {
	warnings := make([]string, 0, len(pq.Warnings()))
	for _, w := range pq.Warnings() {
		warnings = append(warnings, w.Code)
	}
	return ParseEvent{
		Query:         pq.RawQuery(),
		Outcome:       outcome,
		CacheHit:      cacheHit,
		Classes:       pq.Classes(),
		Warnings:      warnings,
		Features:      pq.FeaturesUsed(),
		LatencyMicros: latency.Microseconds(),
		Timestamp:     time.Now().UTC(),
		RequestID:     requestID,
	}
}
