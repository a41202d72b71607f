package cache

import (
	"context"
	"strings"
	"time"

	"editorial-gateway/internal/metrics"
	"editorial-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with logging + metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a store that logs each operation and records
// hit metrics.
func NewLoggingStore(inner Store) Store {
	return &LoggingStore{inner: inner}
}

func (s *LoggingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := loggerFromContext(ctx)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
		metrics.CacheHitsTotal.Inc()
	}

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	}

	if parts, ok := parseEditorialKey(key); ok {
		fields = append(fields,
			zap.String("contest_id", parts.contestID),
			zap.String("problem_index", parts.index),
		)
	}

	if err != nil {
		logger.Error("editorial_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Info("editorial_cache_get", fields...)
	}

	return value, ok, err
}

func (s *LoggingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := loggerFromContext(ctx)

	fields := []zap.Field{
		zap.String("cache_key", key),
		zap.Int("value_bytes", len(value)),
		zap.Float64("latency_ms", latencyMs),
	}

	if parts, ok := parseEditorialKey(key); ok {
		fields = append(fields,
			zap.String("contest_id", parts.contestID),
			zap.String("problem_index", parts.index),
		)
	}

	if err != nil {
		logger.Error("editorial_cache_set", append(fields, zap.Error(err))...)
	} else {
		logger.Info("editorial_cache_set", fields...)
	}

	return err
}

func (s *LoggingStore) FlushAll(ctx context.Context) error {
	err := s.inner.FlushAll(ctx)

	logger := loggerFromContext(ctx)
	if err != nil {
		logger.Error("editorial_cache_flush", zap.Error(err))
	} else {
		logger.Info("editorial_cache_flush")
	}

	return err
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if l := logging.FromContext(ctx); l != nil {
		return l
	}
	return logging.L(ctx)
}

// --- helpers for parsing ProblemIdentifier.CacheKey() ---

type editorialKeyParts struct {
	contestID string
	index     string
}

// Expecting: editorial:<CONTEST_ID>:<INDEX>
func parseEditorialKey(key string) (editorialKeyParts, bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "editorial" {
		return editorialKeyParts{}, false
	}
	return editorialKeyParts{
		contestID: parts[1],
		index:     parts[2],
	}, true
}
