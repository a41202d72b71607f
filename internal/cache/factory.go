package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend string
	TTL     time.Duration
	Prefix  string // redis namespace; ignored by other backends
	Path    string // sqlite file path
}

// New picks a backend from the config. The redis client is only
// consulted for the redis backend and may be nil otherwise.
func New(cfg Config, redisClient *redis.Client) (Store, error) {
	switch cfg.Backend {
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend selected but no client provided")
		}
		return NewRedisStore(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		}), nil
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite backend selected but no path provided")
		}
		return NewSQLiteStore(cfg.Path)
	case BackendMemory, "":
		return NewMemoryStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
