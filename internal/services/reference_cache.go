package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// ReferenceCache кеш справочных данных OpenProject с временем жизни записей.
// Одновременные промахи по одному ключу выполняют загрузку один раз.
type ReferenceCache struct {
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	// gens растет при сбросе ключа, epoch при сбросе всего кеша: загрузка,
	// начатая до сброса, не кладет старые данные в кеш
	gens  map[string]uint64
	epoch uint64
	group singleflight.Group
}

// NewReferenceCache создает кеш; ttl <= 0 заменяется значением по умолчанию (5 минут).
func NewReferenceCache(ttl time.Duration, logger *slog.Logger) *ReferenceCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ReferenceCache{
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
		gens:    make(map[string]uint64),
	}
}

// Get возвращает значение из кеша или загружает его через fetch.
func (c *ReferenceCache) Get(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.storedAt) < c.ttl {
		c.logger.Debug("Cache hit", "key", key)
		return entry.value, nil
	}

	c.logger.Debug("Cache miss", "key", key)
	return c.load(ctx, key, fetch)
}

// Refresh загружает значение заново, минуя кеш.
func (c *ReferenceCache) Refresh(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.Invalidate(key)
	return c.load(ctx, key, fetch)
}

// Invalidate удаляет ключ из кеша.
func (c *ReferenceCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()

	c.group.Forget(key)
	c.logger.Debug("Cleared cache key", "key", key)
}

// Clear очищает кеш целиком.
func (c *ReferenceCache) Clear() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]cacheEntry)
	c.epoch++
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(key)
	}
	c.logger.Debug("Cleared all cache data")
}

func (c *ReferenceCache) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		gen, epoch := c.gens[key], c.epoch
		c.mu.Unlock()

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen && c.epoch == epoch {
			c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
		}
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// cachedList типизированная обертка над Get для списков справочника.
func cachedList[T any](ctx context.Context, c *ReferenceCache, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	items, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("load %s: unexpected cached value %T", key, v)
	}
	return items, nil
}
