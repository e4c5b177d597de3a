package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachingEmbedder memoizes embeddings per (model, task type, text). Ingestion
// retries and repeated queries hit the cache instead of the provider.
type cachingEmbedder struct {
	inner IEmbedder
	cache *expirable.LRU[string, []float32]
}

func NewCachingEmbedder(inner IEmbedder, capacity int, ttl time.Duration) IEmbedder {
	if capacity <= 0 {
		capacity = 10000
	}
	return &cachingEmbedder{
		inner: inner,
		cache: expirable.NewLRU[string, []float32](capacity, nil, ttl),
	}
}

func (e *cachingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := e.cacheKey(taskType, text)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}
	emb, err := e.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, emb)
	return emb, nil
}

func (e *cachingEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func (e *cachingEmbedder) cacheKey(taskType, text string) string {
	hash := sha256.Sum256([]byte(e.inner.ModelName() + "|" + taskType + "|" + text))
	return hex.EncodeToString(hash[:])
}
