package currency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// RateStore memoizes exchange rates keyed by "FROM-TO".
type RateStore interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, rate float64) error
}

// RateKey builds the store key for a currency pair.
func RateKey(from, to string) string {
	return from + "-" + to
}

// MemoryRateStore keeps rates for the lifetime of the process.
type MemoryRateStore struct {
	mu    sync.RWMutex
	rates map[string]float64
}

// NewMemoryRateStore creates an empty in-memory store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{rates: make(map[string]float64)}
}

func (s *MemoryRateStore) Get(_ context.Context, key string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rates[key]
	return r, ok, nil
}

func (s *MemoryRateStore) Set(_ context.Context, key string, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[key] = rate
	return nil
}

// Len returns the number of cached pairs.
func (s *MemoryRateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rates)
}

const (
	redisKeyPrefix = "fx:rate:"
	localCacheSize = 1024
)

// RedisRateStore shares rates between processes through Redis, fronted by a
// small local TinyLFU cache.
type RedisRateStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisRateStore creates a store backed by client. Entries expire after ttl.
func NewRedisRateStore(client *redis.Client, ttl time.Duration) *RedisRateStore {
	localTTL := time.Minute
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	return &RedisRateStore{
		cache: cache.New(&cache.Options{
			Redis:      client,
			LocalCache: cache.NewTinyLFU(localCacheSize, localTTL),
		}),
		ttl: ttl,
	}
}

func (s *RedisRateStore) Get(ctx context.Context, key string) (float64, bool, error) {
	var rate float64
	err := s.cache.Get(ctx, redisKeyPrefix+key, &rate)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("RedisRateStore.Get %s: %w", key, err)
	}
	return rate, true, nil
}

func (s *RedisRateStore) Set(ctx context.Context, key string, rate float64) error {
	if err := s.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKeyPrefix + key,
		Value: rate,
		TTL:   s.ttl,
	}); err != nil {
		return fmt.Errorf("RedisRateStore.Set %s: %w", key, err)
	}
	return nil
}
