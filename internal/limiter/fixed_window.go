package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter 基于 Redis 的固定窗口限流器，多实例共享计数
type FixedWindowLimiter struct {
	client    redis.Cmdable
	config    *Config
	keyPrefix string
	now       func() time.Time
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(client redis.Cmdable, config *Config) (*FixedWindowLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "limiter:fw"
	}

	return &FixedWindowLimiter{
		client:    client,
		config:    config,
		keyPrefix: prefix,
		now:       time.Now,
	}, nil
}

// Redis Lua脚本：固定窗口算法
var fixedWindowScript = redis.NewScript(`
-- KEYS[1]: 计数器key
-- ARGV[1]: 限制数量(rate)
-- ARGV[2]: 时间窗口(window秒)
-- ARGV[3]: 请求数量
-- ARGV[4]: 当前时间戳

local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local requests = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

-- 计算当前窗口的开始时间
local window_start = math.floor(now / window) * window
local window_key = key .. ":" .. window_start

-- 获取当前窗口的请求计数
local current_requests = tonumber(redis.call('GET', window_key) or 0)

-- 检查是否超过限制
if current_requests + requests > limit then
    -- 计算重试时间（到下一个窗口的时间）
    local retry_after = window_start + window - now
    return {0, limit - current_requests, retry_after, current_requests}
end

-- 允许请求，增加计数
local new_count = redis.call('INCRBY', window_key, requests)
redis.call('EXPIRE', window_key, window)
return {1, limit - new_count, 0, new_count}
`)

// getKey 生成Redis key
func (fw *FixedWindowLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", fw.keyPrefix, key)
}

// Allow 检查是否允许请求通过
func (fw *FixedWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN 检查是否允许N个请求通过
func (fw *FixedWindowLimiter) AllowN(ctx context.Context, key string, n int64) (*LimitResult, error) {
	values, err := fixedWindowScript.Run(ctx, fw.client,
		[]string{fw.getKey(key)},
		fw.config.Rate,
		int64(fw.config.Window/time.Second),
		n,
		fw.now().Unix(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run fixed window script: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result length %d", len(values))
	}

	remaining := values[1]
	if remaining < 0 {
		remaining = 0
	}

	return &LimitResult{
		Allowed:       values[0] == 1,
		Limit:         fw.config.Rate,
		Remaining:     remaining,
		RetryAfter:    time.Duration(values[2]) * time.Second,
		TotalRequests: values[3],
	}, nil
}

// Reset 删除该 key 的所有窗口计数
func (fw *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	pattern := fw.getKey(key) + ":*"
	iter := fw.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan limiter keys: %w", err)
	}

	if len(keys) > 0 {
		if err := fw.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete limiter keys: %w", err)
		}
	}
	return nil
}
