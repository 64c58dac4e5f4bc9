package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Search-Query-Parser/pkg/kafka"
)

// maxTrackedQueries bounds the distinct queries counted for TopQueries.
const maxTrackedQueries = 50000

// AggregatedStats is the served and snapshotted view of the aggregator.
type AggregatedStats struct {
	TotalParses      int64            `json:"total_parses"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	Outcomes         map[string]int64 `json:"outcomes"`
	WarningCodes     map[string]int64 `json:"warning_codes"`
	Classes          map[string]int64 `json:"classes"`
	Features         map[string]int64 `json:"features"`
	TopQueries       []QueryCount     `json:"top_queries"`
	AvgLatencyMicros float64          `json:"avg_latency_us"`
	P50LatencyMicros int64            `json:"p50_latency_us"`
	P95LatencyMicros int64            `json:"p95_latency_us"`
	P99LatencyMicros int64            `json:"p99_latency_us"`
	ParsesPerMinute  float64          `json:"parses_per_minute"`
	UntrackedQueries int64            `json:"untracked_queries"`
	CapturedAt       time.Time        `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds ParseEvents into running totals. Latency percentiles are
// computed over the last latencySamples events.
type Aggregator struct {
	mu          sync.RWMutex
	total       int64
	cacheHits   int64
	outcomes    map[string]int64
	warnings    map[string]int64
	classes     map[string]int64
	features    map[string]int64
	queryCounts map[string]int64
	untracked   int64
	latencies   []int64
	next        int
	topN        int
	startTime   time.Time
}

// NewAggregator keeps the topN most frequent queries and a ring of the last
// latencySamples latencies.
func NewAggregator(topN, latencySamples int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	if latencySamples <= 0 {
		latencySamples = 10000
	}
	return &Aggregator{
		outcomes:    make(map[string]int64),
		warnings:    make(map[string]int64),
		classes:     make(map[string]int64),
		features:    make(map[string]int64),
		queryCounts: make(map[string]int64),
		latencies:   make([]int64, 0, latencySamples),
		topN:        topN,
		startTime:   time.Now(),
	}
}

// HandleEvent decodes Kafka messages into the aggregator. Undecodable
// messages are skipped by the consumer.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ParseEvent](value)
		if err != nil {
			return err
		}
		agg.Record(event)
		return nil
	}
}

// Record adds one parse event.
func (a *Aggregator) Record(e ParseEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if e.CacheHit {
		a.cacheHits++
	}
	a.outcomes[e.Outcome]++
	for _, code := range e.Warnings {
		a.warnings[code]++
	}
	for _, class := range e.Classes {
		a.classes[class]++
	}
	for _, f := range e.Features {
		a.features[f]++
	}
	if _, ok := a.queryCounts[e.Query]; ok || len(a.queryCounts) < maxTrackedQueries {
		a.queryCounts[e.Query]++
	} else {
		a.untracked++
	}

	if len(a.latencies) < cap(a.latencies) {
		a.latencies = append(a.latencies, e.LatencyMicros)
	} else {
		a.latencies[a.next] = e.LatencyMicros
		a.next = (a.next + 1) % len(a.latencies)
	}
}

// Restore seeds the counters from a previous snapshot so totals survive a
// restart. Latency samples and per-query counts beyond the top list are not
// restored.
func (a *Aggregator) Restore(s AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total += s.TotalParses
	a.cacheHits += s.CacheHits
	merge(a.outcomes, s.Outcomes)
	merge(a.warnings, s.WarningCodes)
	merge(a.classes, s.Classes)
	merge(a.features, s.Features)
	for _, q := range s.TopQueries {
		a.queryCounts[q.Query] += q.Count
	}
	a.untracked += s.UntrackedQueries
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalParses:      a.total,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.total - a.cacheHits,
		Outcomes:         clone(a.outcomes),
		WarningCodes:     clone(a.warnings),
		Classes:          clone(a.classes),
		Features:         clone(a.features),
		TopQueries:       topN(a.queryCounts, a.topN),
		UntrackedQueries: a.untracked,
		CapturedAt:       time.Now().UTC(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMicros = float64(sum) / float64(len(sorted))
		stats.P50LatencyMicros = percentile(sorted, 50)
		stats.P95LatencyMicros = percentile(sorted, 95)
		stats.P99LatencyMicros = percentile(sorted, 99)
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.ParsesPerMinute = float64(stats.TotalParses) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then query, so equal counts are stable.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func clone(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func merge(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] += v
	}
}
