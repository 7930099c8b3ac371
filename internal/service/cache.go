package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/cache"
)

// ResponseCache stores chatbot answers keyed by normalized message so
// repeated questions skip the knowledge base and the upstream assistant.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// cacheKey hashes the normalized message; raw user text never becomes a key.
func cacheKey(message string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(message))))
	return "chatbot:response:" + hex.EncodeToString(sum[:16])
}

// MemoryResponseCache adapts the in-process TTL cache.
type MemoryResponseCache struct {
	inner *cache.Cache
}

func NewMemoryResponseCache(inner *cache.Cache) *MemoryResponseCache {
	return &MemoryResponseCache{inner: inner}
}

func (m *MemoryResponseCache) Get(_ context.Context, key string) (string, bool) {
	return m.inner.Get(key)
}

func (m *MemoryResponseCache) Set(_ context.Context, key, value string) {
	m.inner.Set(key, value)
}

// RedisResponseCache shares cached answers across instances.
type RedisResponseCache struct {
	inner *cache.RedisCache
	ttl   time.Duration
}

func NewRedisResponseCache(inner *cache.RedisCache, ttl time.Duration) *RedisResponseCache {
	return &RedisResponseCache{inner: inner, ttl: ttl}
}

func (r *RedisResponseCache) Get(ctx context.Context, key string) (string, bool) {
	return r.inner.Get(ctx, key)
}

func (r *RedisResponseCache) Set(ctx context.Context, key, value string) {
	_ = r.inner.Set(ctx, key, value, r.ttl)
}
