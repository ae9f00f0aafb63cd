package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout 为请求上下文设置截止时间。
// 数据库、缓存和消息队列调用都会沿用该上下文，超时后由处理器返回 504。
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
