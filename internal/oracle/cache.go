package oracle

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doodleleagues/whitelist_checker/internal/metrics"
)

const (
	cachePrefix     = "oracle:v1:"
	cacheOpsTimeout = 500 * time.Millisecond
)

// CachedGenerator memoizes generated readings in Redis. Fallback readings
// are never stored so a recovered model gets a chance on the next check.
type CachedGenerator struct {
	next   Generator
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedGenerator wraps next. A nil cache disables caching.
func NewCachedGenerator(next Generator, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedGenerator {
	return &CachedGenerator{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Generate serves a cached reading when present, otherwise delegates.
func (g *CachedGenerator) Generate(ctx context.Context, identifier string, eligible bool) string {
	if g.cache == nil || g.ttl <= 0 {
		return g.next.Generate(ctx, identifier, eligible)
	}
	key := cacheKey(identifier, eligible)

	getCtx, cancel := context.WithTimeout(ctx, cacheOpsTimeout)
	cached, err := g.cache.Get(getCtx, key).Result()
	cancel()
	switch {
	case err == nil && cached != "":
		metrics.OracleReadingsTotal.WithLabelValues("cached").Inc()
		return cached
	case err != nil && !errors.Is(err, redis.Nil):
		g.logger.Warn("oracle cache lookup failed", slog.String("key", key), slog.Any("error", err))
	}

	text := g.next.Generate(ctx, identifier, eligible)
	if IsFallback(text, eligible) {
		return text
	}

	setCtx, cancel := context.WithTimeout(context.Background(), cacheOpsTimeout)
	defer cancel()
	if err := g.cache.Set(setCtx, key, text, g.ttl).Err(); err != nil {
		g.logger.Warn("oracle cache store failed", slog.String("key", key), slog.Any("error", err))
	}
	return text
}

func cacheKey(identifier string, eligible bool) string {
	return cachePrefix + strconv.FormatBool(eligible) + ":" + strings.ToLower(strings.TrimSpace(identifier))
}
