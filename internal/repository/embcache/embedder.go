// Package embcache caches query embeddings in two tiers: an in-process LRU
// and an optional shared Redis tier with a bounded TTL.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/drivelane/carsearch/internal/db"
	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/metrics"
)

const keyPrefix = "emb:"

// Embedder wraps an upstream embedding provider with caching. Lookups hit
// the in-process LRU first, then Redis; identical concurrent misses are
// collapsed to one upstream call.
type Embedder struct {
	upstream domain.Embedder
	memory   *lru.Cache[string, domain.EmbeddingResult]
	store    db.KVStore // nil disables the shared tier
	ttl      time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// New creates a caching embedder. store may be nil for LRU-only caching.
func New(upstream domain.Embedder, lruSize int, store db.KVStore, ttl time.Duration, logger *zap.Logger) (*Embedder, error) {
	memory, err := lru.New[string, domain.EmbeddingResult](lruSize)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		upstream: upstream,
		memory:   memory,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Embed returns the embedding for text, from cache when possible.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cacheKey(text)

	if result, ok := e.memory.Get(key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("memory", "hit").Inc()
		return result, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("memory", "miss").Inc()

	if result, ok := e.fromStore(ctx, key); ok {
		e.memory.Add(key, result)
		return result, nil
	}

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		result, err := e.upstream.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		e.memory.Add(key, result)
		e.toStore(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return v.(domain.EmbeddingResult), nil
}

func (e *Embedder) fromStore(ctx context.Context, key string) (domain.EmbeddingResult, bool) {
	if e.store == nil {
		return domain.EmbeddingResult{}, false
	}
	data, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			e.logger.Warn("Embedding cache read failed", zap.Error(err))
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("redis", "miss").Inc()
		return domain.EmbeddingResult{}, false
	}

	var result domain.EmbeddingResult
	if err := json.Unmarshal(data, &result); err != nil {
		e.logger.Warn("Corrupt cached embedding dropped", zap.String("key", key), zap.Error(err))
		if delErr := e.store.Del(ctx, key); delErr != nil {
			e.logger.Warn("Corrupt embedding eviction failed", zap.String("key", key), zap.Error(delErr))
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("redis", "miss").Inc()
		return domain.EmbeddingResult{}, false
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("redis", "hit").Inc()
	return result, true
}

// toStore writes through to the shared tier. Failures are logged, never
// propagated; the embedding is already computed.
func (e *Embedder) toStore(ctx context.Context, key string, result domain.EmbeddingResult) {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.store.SetWithTTL(ctx, key, data, e.ttl); err != nil {
		e.logger.Warn("Embedding cache write failed", zap.Error(err))
	}
}

// cacheKey hashes the normalized query text. Case and whitespace variants
// of the same query share one entry.
func cacheKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}
