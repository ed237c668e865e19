package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/domain/repository"
	"MacroSync/pkg/cache"
	applogger "MacroSync/pkg/logger"
)

// CodeResolver picks the working code out of an ordered candidate list
// and remembers the winner, so renamed upstream identifiers are probed
// once per TTL instead of on every fetch.
type CodeResolver struct {
	cache cache.Service
	ttl   time.Duration
	log   *applogger.Logger
}

// NewCodeResolver creates a resolver backed by the given cache.
func NewCodeResolver(c cache.Service, ttl time.Duration, log *applogger.Logger) *CodeResolver {
	return &CodeResolver{cache: c, ttl: ttl, log: log}
}

// Fetch retrieves the column's series, resolving candidates in order. A
// candidate answers when its fetch succeeds with data; a fetch that
// succeeds but is empty is kept as a fallback in case every other
// candidate errors, since some providers answer unknown keys with an
// empty payload. The winning code is cached per table and column.
func (r *CodeResolver) Fetch(ctx context.Context, adapter repository.SourceAdapter, table, column string, codes []string, start, end time.Time) (string, models.Series, error) {
	if len(codes) == 1 {
		s, err := adapter.Fetch(ctx, codes[0], start, end)
		return codes[0], s, err
	}

	key := fmt.Sprintf("resolve:%s:%s", table, column)

	var cached string
	if err := r.cache.Get(ctx, key, &cached); err == nil && cached != "" {
		s, err := adapter.Fetch(ctx, cached, start, end)
		if err == nil {
			return cached, s, nil
		}
		r.log.Warn("cached code stopped answering, re-resolving",
			applogger.String("table", table),
			applogger.String("column", column),
			applogger.String("code", cached),
			applogger.Error(err),
		)
		_ = r.cache.Delete(ctx, key)
	}

	var (
		emptyCode string
		emptySet  bool
		lastErr   error
	)
	for _, code := range codes {
		s, err := adapter.Fetch(ctx, code, start, end)
		if err != nil {
			lastErr = err
			continue
		}
		if s.Empty() {
			if !emptySet {
				emptyCode, emptySet = code, true
			}
			continue
		}
		if err := r.cache.Set(ctx, key, code, r.ttl); err != nil {
			r.log.Warn("resolver cache set failed", applogger.Error(err))
		}
		return code, s, nil
	}
	if emptySet {
		return emptyCode, models.Series{}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate codes configured")
	}
	return "", models.Series{}, fmt.Errorf("resolve %s.%s: %w", table, column, lastErr)
}
