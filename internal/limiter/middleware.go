package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// 限流 key 的作用域，例如 "login"、"comment"
	Scope string

	// Key生成函数
	KeyGenerator func(*gin.Context) string

	// 是否跳过限流检查
	Skip func(*gin.Context) bool

	Logger *zap.Logger
}

// 响应头名称
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// IPKeyGenerator 基于客户端 IP
func IPKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// UserOrIPKeyGenerator 已认证时使用用户ID，否则退回 IP
func UserOrIPKeyGenerator(c *gin.Context) string {
	if user := middleware.UserFromContext(c.Request.Context()); user != nil {
		return fmt.Sprintf("user:%s", user.ID())
	}
	return IPKeyGenerator(c)
}

// RateLimitMiddleware 创建限流中间件。限流器出错时放行请求并记录日志。
func RateLimitMiddleware(config *MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = IPKeyGenerator
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if config.Skip != nil && config.Skip(c) {
			c.Next()
			return
		}

		key := config.KeyGenerator(c)
		if config.Scope != "" {
			key = config.Scope + ":" + key
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, key)
		if err != nil {
			config.Logger.Warn("rate limiter unavailable, request allowed",
				zap.String("key", key),
				zap.String("request_id", middleware.RequestIDFromContext(c.Request.Context())),
				zap.Error(err))
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
				"too many requests, please retry later",
				middleware.RequestIDFromContext(c.Request.Context()), "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders 设置限流相关的响应头
func setRateLimitHeaders(c *gin.Context, result *LimitResult) {
	c.Header(HeaderLimit, strconv.FormatInt(result.Limit, 10))
	c.Header(HeaderRemaining, strconv.FormatInt(result.Remaining, 10))
	if result.RetryAfter > 0 {
		c.Header(HeaderRetryAfter, strconv.FormatInt(int64(result.RetryAfter.Seconds()), 10))
	}
}
