package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"editorial-gateway/internal/cache"
	"editorial-gateway/internal/codeforces"
	"editorial-gateway/internal/extract"
	"editorial-gateway/internal/fetch"
	"editorial-gateway/internal/handlers"
	"editorial-gateway/internal/httpserver"
	"editorial-gateway/internal/llm"
	"editorial-gateway/internal/metrics"
	"editorial-gateway/internal/orchestrator"
	"editorial-gateway/internal/tutorial"
	"editorial-gateway/pkg/logging/logging"
)

type Config struct {
	Port         string
	CacheBackend string // "memory", "redis", "sqlite" or "off"
	CacheTTL     time.Duration
	CachePrefix  string
	RedisAddr    string
	SQLitePath   string
	CFBaseURL    string
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
}

func LoadConfig() Config {
	return Config{
		Port:         getenv("PORT", "8080"),
		CacheBackend: getenv("CACHE_BACKEND", "memory"),
		CacheTTL:     getduration("CACHE_TTL", 24*time.Hour),
		CachePrefix:  getenv("CACHE_PREFIX", "editorial"),
		RedisAddr:    getenv("REDIS_ADDR", "127.0.0.1:6379"),
		SQLitePath:   getenv("SQLITE_PATH", "editorial-cache.db"),
		CFBaseURL:    getenv("CODEFORCES_BASE_URL", codeforces.DefaultBaseURL),
		LLMBaseURL:   getenv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMModel:     getenv("LLM_MODEL", "gpt-4o-mini"),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func run() error {
	// .env is optional; the logger reads ENV and LOG_LEVEL, so load
	// before building it.
	_ = godotenv.Load()

	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.String("codeforces_base_url", cfg.CFBaseURL),
		zap.String("llm_base_url", cfg.LLMBaseURL),
		zap.String("llm_model", cfg.LLMModel),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.CacheBackend == cache.BackendRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Editorial cache -----
	var store cache.Store
	if cfg.CacheBackend != "off" {
		var err error
		store, err = cache.New(cache.Config{
			Backend: cfg.CacheBackend,
			TTL:     cfg.CacheTTL,
			Prefix:  cfg.CachePrefix,
			Path:    cfg.SQLitePath,
		}, redisClient)
		if err != nil {
			logger.Error("cache init failed", zap.Error(err))
			return err
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		store = cache.NewLoggingStore(store)
	} else {
		logger.Warn("editorial cache disabled; every request runs the full pipeline")
	}

	// ----- LLM client -----
	if cfg.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}

	llmClient, err := llm.NewClient(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	}, logger)
	if err != nil {
		return err
	}
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// ----- Pipeline collaborators -----
	fetcher := fetch.New(fetch.Config{})

	orch, err := orchestrator.New(orchestrator.Deps{
		Resolver:  codeforces.NewURLResolver(),
		Problems:  codeforces.NewPageParser(fetcher, cfg.CFBaseURL, logger),
		Tutorials: tutorial.NewFinder(fetcher, llmClient, cfg.CFBaseURL, logger),
		Contents:  tutorial.NewParser(fetcher, logger),
		Extractor: extract.NewExtractor(llmClient, logger),
	}, buildOptions(cfg, store, logger)...)
	if err != nil {
		return err
	}

	// ----- Handlers -----
	editorialHandler := handlers.NewEditorialHandler(orch)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, editorialHandler)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The write timeout must outlast the in-router request timeout
		// or slow pipelines die without a response.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

func buildOptions(cfg Config, store cache.Store, logger *zap.Logger) []orchestrator.Option {
	opts := []orchestrator.Option{orchestrator.WithLogger(logger)}
	if store != nil {
		opts = append(opts, orchestrator.WithCache(store, cfg.CacheTTL))
	}
	return opts
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getduration parses the environment variable key as a duration,
// falling back to def when unset or unparseable.
func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s %q, using %s", key, v, def)
		return def
	}
	return d
}
