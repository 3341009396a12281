// Command carsearch runs the vehicle search API: constraint composition,
// exact/semantic/hybrid retrieval, and result ranking over an external
// inventory index.
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

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/config"
	"github.com/drivelane/carsearch/internal/db"
	redisdb "github.com/drivelane/carsearch/internal/db/redis"
	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/rerank"
	"github.com/drivelane/carsearch/internal/logger"
	"github.com/drivelane/carsearch/internal/metrics"
	"github.com/drivelane/carsearch/internal/repository/embcache"
	chiTransport "github.com/drivelane/carsearch/internal/transport/chi"
	"github.com/drivelane/carsearch/internal/transport/inventory"
	"github.com/drivelane/carsearch/internal/transport/nlu"
	openaiEmb "github.com/drivelane/carsearch/internal/transport/openai"
	"github.com/drivelane/carsearch/internal/transport/retry"
	"github.com/drivelane/carsearch/internal/usecase/compose"
	"github.com/drivelane/carsearch/internal/usecase/pipeline"
	"github.com/drivelane/carsearch/internal/usecase/rank"
	"github.com/drivelane/carsearch/internal/usecase/search"
	"github.com/drivelane/carsearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("Starting carsearch",
		zap.String("env", env),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit))

	metrics.Register()

	// Optional shared cache tier.
	var store db.Store
	if len(cfg.Cache.RedisAddrs) > 0 {
		redisStore, err := redisdb.NewStore(redisdb.Config{
			Addrs:    cfg.Cache.RedisAddrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			zlog.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer redisStore.Close()

		waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := redisStore.WaitForReady(waitCtx, 30*time.Second); err != nil {
			cancel()
			zlog.Fatal("Cache store not ready", zap.Error(err))
		}
		cancel()
		store = redisStore
		zlog.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.RedisAddrs))
	} else {
		zlog.Info("No Redis configured, embedding cache runs in-process only")
	}

	embedder, err := buildEmbedder(cfg, store, zlog)
	if err != nil {
		zlog.Fatal("Failed to build embedder", zap.Error(err))
	}

	inventoryClient, err := inventory.NewClient(inventory.Config{
		BaseURL: cfg.Inventory.BaseURL,
		Index:   cfg.Inventory.Index,
		APIKey:  cfg.Inventory.APIKey,
		Timeout: time.Duration(cfg.Inventory.TimeoutSec) * time.Second,
		Retry: retry.Config{
			MaxAttempts:  cfg.Inventory.Retry.MaxAttempts,
			InitialDelay: time.Duration(cfg.Inventory.Retry.InitialDelayMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Inventory.Retry.MaxDelayMs) * time.Millisecond,
		},
		Logger: zlog,
	})
	if err != nil {
		zlog.Fatal("Failed to create inventory client", zap.Error(err))
	}

	nluClient, err := nlu.NewClient(nlu.Config{
		BaseURL: cfg.NLU.BaseURL,
		Timeout: time.Duration(cfg.NLU.TimeoutSec) * time.Second,
		Logger:  zlog,
	})
	if err != nil {
		zlog.Fatal("Failed to create NLU client", zap.Error(err))
	}

	qualitative, err := cfg.QualitativeConstraints()
	if err != nil {
		zlog.Fatal("Invalid qualitative term configuration", zap.Error(err))
	}
	parser := compose.NewParser(cfg.Parsing.ApproxBand, qualitative, zlog)
	composer := compose.New(parser, zlog)

	concepts, err := cfg.ConceptMappings()
	if err != nil {
		zlog.Fatal("Invalid concept configuration", zap.Error(err))
	}
	rules, err := rank.BuildRules(cfg.Ranking.BusinessRules, time.Now)
	if err != nil {
		zlog.Fatal("Invalid business rule configuration", zap.Error(err))
	}

	defaultStrategy := rerank.Strategy{
		Approach:       rerank.Hybrid,
		FactorWeights:  cfg.Ranking.FactorWeights,
		Rules:          rules,
		ApplyDiversity: true,
		MaxPerMake:     cfg.Ranking.Diversity.MaxPerMake,
		MaxPerModel:    cfg.Ranking.Diversity.MaxPerModel,
	}
	ranker := rank.NewService(rank.NewConceptMapper(concepts), defaultStrategy, zlog)

	orchestrator := search.New(inventoryClient, embedder, cfg.Search.OverfetchFactor, cfg.Search.RRFK, zlog)
	pipelineSvc := pipeline.New(nluClient, composer, orchestrator, ranker, inventoryClient, cfg.Search.MaxResults, zlog)

	var pinger chiTransport.Pinger
	if store != nil {
		pinger = store
	}
	server := chiTransport.NewServer(pipelineSvc, rules, defaultStrategy, pinger, zlog)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	zlog.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Error during shutdown", zap.Error(err))
	}

	zlog.Info("Server stopped gracefully")
}

// buildEmbedder assembles the chain: OpenAI provider wrapped by the
// two-tier cache.
func buildEmbedder(cfg config.Config, store db.Store, zlog *zap.Logger) (domain.Embedder, error) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     zlog,
	})

	// Startup probe only; semantic search degrades per request if the
	// provider goes away later.
	if cfg.Embedding.APIKey != "" {
		probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := base.HealthCheck(probeCtx); err != nil {
			zlog.Warn("Embedding provider unreachable at startup", zap.Error(err))
		}
		cancel()
	}

	var kv db.KVStore
	if store != nil {
		kv = store
	}
	return embcache.New(base, cfg.Cache.LRUSize, kv,
		time.Duration(cfg.Cache.TTLHours)*time.Hour, zlog)
}
