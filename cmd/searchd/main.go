package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidesearch/tidesearch/internal/analytics"
	"github.com/tidesearch/tidesearch/internal/index"
	"github.com/tidesearch/tidesearch/internal/search"
	"github.com/tidesearch/tidesearch/internal/search/cache"
	"github.com/tidesearch/tidesearch/internal/search/handler"
	storepg "github.com/tidesearch/tidesearch/internal/store/postgres"
	"github.com/tidesearch/tidesearch/internal/tokenizer"
	"github.com/tidesearch/tidesearch/pkg/config"
	"github.com/tidesearch/tidesearch/pkg/health"
	"github.com/tidesearch/tidesearch/pkg/kafka"
	"github.com/tidesearch/tidesearch/pkg/logger"
	"github.com/tidesearch/tidesearch/pkg/metrics"
	"github.com/tidesearch/tidesearch/pkg/middleware"
	pkgredis "github.com/tidesearch/tidesearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	documentsPath := flag.String("documents", "", "path to a JSON documents file to index at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting ranking service", "port", cfg.Server.Port)

	idx, err := buildIndex(cfg, *documentsPath)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	slog.Info("index ready", "documents", idx.DocCount(), "revision", idx.Revision())

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	// Field values come from Postgres when configured, otherwise from the
	// in-memory documents.
	var docs index.DocumentReader = idx
	var pgClient *storepg.Client
	if cfg.Postgres.Enabled {
		pgClient, err = storepg.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		docs = storepg.NewFieldReader(pgClient)
		slog.Info("field reader backed by postgres", "host", cfg.Postgres.Host)
	}

	engine, err := search.New(cfg, idx, docs, m)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	var resultCache *cache.ResultCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = cache.New(redisClient, cfg.Redis, m)
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.QueryEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("query analytics enabled", "topic", cfg.Kafka.QueryEvents)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if idx.DocCount() > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", idx.DocCount())}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "index is empty"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	h := handler.New(engine, idx, cfg, resultCache, collector)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.QueryID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("ranking service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("ranking service stopped")
}

// buildIndex loads the documents file (when given) into an in-memory index
// snapshot tokenized with the configured separators and dictionary.
func buildIndex(cfg *config.Config, path string) (*index.MemIndex, error) {
	idx := index.NewMemIndex(1)
	if path == "" {
		return idx, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading documents file: %w", err)
	}
	var docs []index.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing documents file: %w", err)
	}
	tok := tokenizer.New(cfg.Ranking)
	for _, doc := range docs {
		idx.Add(doc, tok)
	}
	return idx, nil
}
