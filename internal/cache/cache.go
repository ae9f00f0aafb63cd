// Package cache 提供缓存抽象以及 Redis、内存和空实现。
// 值统一以 JSON 序列化存储，读取时反序列化到调用方传入的指针。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss 键不存在、已过期或缓存被禁用
var ErrCacheMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// DefaultMemoryEntries 内存缓存默认容量
const DefaultMemoryEntries = 10000

// MemoryCache 进程内缓存，Redis 不可用或单机开发时使用。
// 容量满时先清理过期项，仍然不足则淘汰最早过期的一项。
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryCache 创建默认容量的内存缓存
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCapacity(DefaultMemoryEntries)
}

// NewMemoryCacheWithCapacity 创建指定容量的内存缓存，capacity<=0 时使用默认容量
func NewMemoryCacheWithCapacity(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: capacity,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && m.expired(entry) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

func (m *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict()
	}
	m.entries[key] = memoryEntry{payload: payload, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// Len 当前条目数（含尚未清理的过期项）
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) Ping(ctx context.Context) error { return nil }

// Close 清空所有条目
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

func (m *MemoryCache) expired(e memoryEntry) bool {
	return !m.now().Before(e.expiresAt)
}

// evict 调用方持有锁
func (m *MemoryCache) evict() {
	var (
		victim   string
		earliest time.Time
	)
	for key, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, key)
			continue
		}
		if victim == "" || e.expiresAt.Before(earliest) {
			victim, earliest = key, e.expiresAt
		}
	}
	if len(m.entries) >= m.maxEntries && victim != "" {
		delete(m.entries, victim)
	}
}

// NullCache 禁用缓存时使用，所有读取都未命中
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

func (NullCache) Get(ctx context.Context, key string, dest any) error { return ErrCacheMiss }

func (NullCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (NullCache) Del(ctx context.Context, keys ...string) error { return nil }

func (NullCache) Ping(ctx context.Context) error { return nil }

func (NullCache) Close() error { return nil }
