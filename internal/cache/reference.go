// Package cache реализует read-through кэш статических справочников.
package cache

import (
	"context"
	"sync"

	"filmorate/internal/metrics"
)

// Loader загружает справочник целиком.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Reference кэширует справочную таблицу целиком при первом обращении.
// Invalidate сбрасывает содержимое, следующий запрос перечитывает таблицу.
type Reference[T any] struct {
	name string
	load Loader[T]
	idOf func(T) int64

	mu     sync.RWMutex
	loaded bool
	items  []T
	byID   map[int64]T
}

// NewReference создает кэш; name используется как метка метрик.
func NewReference[T any](name string, idOf func(T) int64, load Loader[T]) *Reference[T] {
	return &Reference[T]{name: name, load: load, idOf: idOf}
}

// All возвращает копию всех строк в порядке загрузки.
func (c *Reference[T]) All(ctx context.Context) ([]T, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, nil
}

// Get возвращает строку по id; ok == false, если ее нет в справочнике.
func (c *Reference[T]) Get(ctx context.Context, id int64) (item T, ok bool, err error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return item, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok = c.byID[id]
	return item, ok, nil
}

// Invalidate полностью очищает кэш.
func (c *Reference[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.items = nil
	c.byID = nil
	metrics.RecordCacheInvalidation(c.name)
}

func (c *Reference[T]) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		metrics.RecordCacheHit(c.name)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		metrics.RecordCacheHit(c.name)
		return nil
	}
	metrics.RecordCacheMiss(c.name)

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]T, len(items))
	for _, item := range items {
		byID[c.idOf(item)] = item
	}
	c.items = items
	c.byID = byID
	c.loaded = true
	return nil
}
