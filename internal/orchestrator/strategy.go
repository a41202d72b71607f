package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"editorial-gateway/internal/cache"
	"editorial-gateway/internal/editorial"
)

// cacheStrategy is the advisory cache policy around the pipeline.
// The cache accelerates but never gates: lookup and save failures
// degrade to cache-off behavior, only clear surfaces backend errors.
//
// A nil store means caching is disabled; that decision is made once at
// construction and the hot path never re-checks configuration.
type cacheStrategy struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// defaultTTL keeps entries for a day. Editorials rarely change once
// published; a day bounds staleness without refetching every request.
const defaultTTL = 24 * time.Hour

func newCacheStrategy(store cache.Store, ttl time.Duration, logger *zap.Logger) cacheStrategy {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return cacheStrategy{
		store:  store,
		ttl:    ttl,
		logger: logger.Named("cachestrategy"),
	}
}

func (s cacheStrategy) enabled() bool { return s.store != nil }

// lookup returns the cached editorial for id, or a miss. It never
// returns an error: a failing or corrupt cache must read as a miss.
func (s cacheStrategy) lookup(ctx context.Context, id editorial.ProblemIdentifier) (*editorial.Editorial, bool) {
	if s.store == nil {
		return nil, false
	}

	key := id.CacheKey()

	raw, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed, treating as miss",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return nil, false
	}
	if !found {
		return nil, false
	}

	cached, err := editorial.DecodeCachedEditorial(raw)
	if err != nil {
		s.logger.Warn("corrupt cache entry, treating as miss",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return nil, false
	}

	ed := cached.Editorial
	return &ed, true
}

// save writes the editorial through to the cache. Failures are logged
// and swallowed; the caller already has its result.
func (s cacheStrategy) save(ctx context.Context, id editorial.ProblemIdentifier, ed *editorial.Editorial, tutorialURL string, format editorial.TutorialFormat) {
	if s.store == nil || ed == nil {
		return
	}

	key := id.CacheKey()

	env := editorial.CachedEditorial{
		Problem:        id,
		Editorial:      *ed,
		TutorialURL:    tutorialURL,
		TutorialFormat: format,
	}
	raw, err := env.Encode()
	if err != nil {
		s.logger.Warn("cache encode failed, skipping save",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return
	}

	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("cache save failed",
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("editorial cached",
		zap.String("cache_key", key),
		zap.Duration("ttl", s.ttl),
	)
}

// clear empties the cache. Unlike lookup and save this propagates
// backend failure: an operator asking for a flush needs to know it
// did not happen.
func (s cacheStrategy) clear(ctx context.Context) error {
	if s.store == nil {
		s.logger.Warn("cache is not enabled")
		return nil
	}

	if err := s.store.FlushAll(ctx); err != nil {
		return editorial.Wrap(editorial.KindCache, "clear cache", err)
	}

	s.logger.Info("cache cleared")
	return nil
}
