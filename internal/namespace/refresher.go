package namespace

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Loader is a source of the namespace table.
type Loader interface {
	Load(ctx context.Context) (map[string]int, error)
}

// Refresher periodically reloads a Resolver from a Loader. Static names are
// merged under the loaded ones, so configuration can seed names the
// database lacks.
type Refresher struct {
	resolver *Resolver
	loader   Loader
	static   map[string]int
	interval time.Duration
	onChange func(ctx context.Context)
	logger   *slog.Logger
}

// NewRefresher reloads resolver from loader every interval. Static names
// fill in for anything the loader does not return.
func NewRefresher(resolver *Resolver, loader Loader, static map[string]int, interval time.Duration) *Refresher {
	return &Refresher{
		resolver: resolver,
		loader:   loader,
		static:   static,
		interval: interval,
		logger:   slog.Default().With("component", "namespace-refresher"),
	}
}

// OnChange registers fn to run after a refresh that changed the table.
func (r *Refresher) OnChange(fn func(ctx context.Context)) {
	r.onChange = fn
}

// Refresh loads once. On error the resolver keeps its current table.
func (r *Refresher) Refresh(ctx context.Context) error {
	loaded, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading namespaces: %w", err)
	}
	merged := make(map[string]int, len(r.static)+len(loaded))
	for name, id := range r.static {
		merged[name] = id
	}
	for name, id := range loaded {
		merged[name] = id
	}
	changed := r.resolver.Replace(merged)
	r.logger.Debug("namespaces refreshed", "count", r.resolver.Len(), "changed", changed)
	if changed && r.onChange != nil {
		r.onChange(ctx)
	}
	return nil
}

// Run refreshes every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("namespace refresh failed", "error", err)
			}
		}
	}
}
