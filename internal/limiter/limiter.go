// Package limiter 提供固定窗口限流器（Redis 与进程内实现）及 gin 中间件
package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed       bool          `json:"allowed"`        // 是否允许通过
	Limit         int64         `json:"limit"`          // 窗口内允许的请求数
	Remaining     int64         `json:"remaining"`      // 剩余配额
	RetryAfter    time.Duration `json:"retry_after"`    // 建议重试时间
	TotalRequests int64         `json:"total_requests"` // 当前窗口已接受的请求数
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// AllowN 检查是否允许N个请求通过
	AllowN(ctx context.Context, key string, n int64) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error
}

// Config 限流配置
type Config struct {
	Rate      int64         `json:"rate"`       // 每个窗口允许的请求数
	Window    time.Duration `json:"window"`     // 时间窗口，至少1秒
	KeyPrefix string        `json:"key_prefix"` // Key前缀
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be greater than 0")
	}
	if c.Window < time.Second {
		return fmt.Errorf("window must be at least 1s, got %s", c.Window)
	}
	return nil
}

// windowStart 计算 now 所在窗口的起始秒
func windowStart(now time.Time, window time.Duration) int64 {
	seconds := int64(window / time.Second)
	return (now.Unix() / seconds) * seconds
}

// New 有 Redis 客户端时使用共享计数，否则退回进程内限流器
func New(client *redis.Client, config *Config, logger *zap.Logger) (Limiter, error) {
	if client != nil {
		return NewFixedWindowLimiter(client, config)
	}
	if logger != nil {
		logger.Warn("redis unavailable, using in-process rate limiter")
	}
	return NewMemoryLimiter(config)
}
