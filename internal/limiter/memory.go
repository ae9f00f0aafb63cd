package limiter

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryLimiter 进程内固定窗口限流器，Redis 不可用时使用，计数不跨实例共享。
// 每进入一个新窗口清理一次上个窗口留下的计数，map 大小受单个窗口内的活跃 key 数约束。
type MemoryLimiter struct {
	config  *Config
	mu      sync.Mutex
	counts  map[string]*windowCount
	sweptAt int64
	now     func() time.Time
}

type windowCount struct {
	start int64
	count int64
}

// NewMemoryLimiter 创建进程内限流器
func NewMemoryLimiter(config *Config) (*MemoryLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &MemoryLimiter{
		config: config,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}, nil
}

// Allow 检查是否允许请求通过
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return m.AllowN(ctx, key, 1)
}

// AllowN 与 Redis 脚本相同的语义：超限时不计数
func (m *MemoryLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	now := m.now()
	start := windowStart(now, m.config.Window)
	windowSeconds := int64(m.config.Window / time.Second)

	m.mu.Lock()
	defer m.mu.Unlock()

	if start != m.sweptAt {
		m.sweep(start)
	}

	wc, ok := m.counts[key]
	if !ok || wc.start != start {
		wc = &windowCount{start: start}
		m.counts[key] = wc
	}

	if wc.count+n > m.config.Rate {
		return &LimitResult{
			Allowed:       false,
			Limit:         m.config.Rate,
			Remaining:     max(m.config.Rate-wc.count, 0),
			RetryAfter:    time.Duration(start+windowSeconds-now.Unix()) * time.Second,
			TotalRequests: wc.count,
		}, nil
	}

	wc.count += n
	return &LimitResult{
		Allowed:       true,
		Limit:         m.config.Rate,
		Remaining:     m.config.Rate - wc.count,
		TotalRequests: wc.count,
	}, nil
}

// sweep 删除早于当前窗口的计数，调用方持有锁
func (m *MemoryLimiter) sweep(current int64) {
	for k, wc := range m.counts {
		if wc.start < current {
			delete(m.counts, k)
		}
	}
	m.sweptAt = current
}

// Reset 重置以 key 开头的计数
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.counts {
		if k == key || strings.HasPrefix(k, key+":") {
			delete(m.counts, k)
		}
	}
	return nil
}
