package search

import (
	"context"
	"fmt"
	"log"
	"time"

	"spotlight-mcp-server/internal/record"
	"spotlight-mcp-server/internal/session"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// DefaultPerTypeLimit caps how many records a single type may contribute.
const DefaultPerTypeLimit = 20

// Backend executes one planned intent against a concrete search source.
// Implementations must be safe for concurrent use.
type Backend interface {
	Name() string
	Search(ctx context.Context, intent QueryIntent, sess session.Context) ([]record.Raw, error)
}

// Executor fans planned intents out across the resolved backend and joins
// the partial results. Per-type failures are isolated: a failing intent
// contributes zero records and never aborts its siblings, so Execute
// itself cannot fail.
type Executor struct {
	source   func() Backend
	fallback Backend
	cache    *cache.Cache
	limit    int
}

// NewExecutor builds an executor over a backend source, consulted fresh on
// every Execute so strategy re-resolution (Resolver.Backend) takes effect
// mid-process. cacheTTL > 0 memoizes per-intent results so debounced
// keystrokes on an unchanged query don't rehit the backend; limit <= 0
// uses DefaultPerTypeLimit.
func NewExecutor(source func() Backend, cacheTTL time.Duration, limit int) *Executor {
	e := &Executor{
		source:   source,
		fallback: NewFallbackBackend(),
		limit:    limit,
	}
	if e.limit <= 0 {
		e.limit = DefaultPerTypeLimit
	}
	if cacheTTL > 0 {
		e.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return e
}

// Execute runs every intent concurrently and returns the merged rows in
// intent order. An unauthenticated session (no account id) short-circuits
// to the deterministic offline dataset without issuing any network call.
func (e *Executor) Execute(ctx context.Context, intents []QueryIntent, sess session.Context) []record.Raw {
	if len(intents) == 0 {
		return nil
	}

	src := e.source()
	if sess.AccountID == "" {
		log.Printf("[search] no account id in session, using offline dataset")
		src = e.fallback
	}

	buckets := make([][]record.Raw, len(intents))
	g, gctx := errgroup.WithContext(ctx)
	for i, intent := range intents {
		i, intent := i, intent
		g.Go(func() error {
			rows, err := e.searchOne(gctx, src, intent, sess)
			if err != nil {
				// Isolation: log and contribute nothing for this type.
				log.Printf("[search] %s query %q failed: %v", intent.Type, intent.Query, err)
				return nil
			}
			buckets[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var merged []record.Raw
	for _, rows := range buckets {
		merged = append(merged, rows...)
	}
	return merged
}

// searchOne runs a single intent with caching, the per-type ceiling, and a
// panic guard so one misbehaving backend cannot take down the fan-out.
func (e *Executor) searchOne(ctx context.Context, src Backend, intent QueryIntent, sess session.Context) (rows []record.Raw, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("backend %s panic: %v", src.Name(), r)
		}
	}()

	key := src.Name() + "|" + string(intent.Type) + "|" + intent.Query
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached.([]record.Raw), nil
		}
	}

	rows, err = src.Search(ctx, intent, sess)
	if err != nil {
		return nil, err
	}
	if len(rows) > e.limit {
		rows = rows[:e.limit]
	}
	if e.cache != nil {
		e.cache.Set(key, rows, cache.DefaultExpiration)
	}
	return rows, nil
}
