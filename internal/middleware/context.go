// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、CORS、访问日志、认证。
package middleware

import (
	"context"
	"sync"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

type contextKey string

const (
	contextKeyRequest contextKey = "request_state"
	contextKeyUser    contextKey = "user"
)

// requestState 由最外层的 RequestID 中间件放入上下文。
// 内层认证成功后回写用户ID，外层访问日志才能读到。
type requestState struct {
	id string

	mu     sync.Mutex
	userID string
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequest, &requestState{id: id})
}

func stateFromContext(ctx context.Context) *requestState {
	s, _ := ctx.Value(contextKeyRequest).(*requestState)
	return s
}

// RequestIDFromContext 从上下文中读取请求 ID（可能为空）
func RequestIDFromContext(ctx context.Context) string {
	if s := stateFromContext(ctx); s != nil {
		return s.id
	}
	return ""
}

// WithUser 将当前用户写入上下文
func WithUser(ctx context.Context, user *domain.User) context.Context {
	if s := stateFromContext(ctx); s != nil && user != nil {
		s.mu.Lock()
		s.userID = user.ID().Value()
		s.mu.Unlock()
	}
	return context.WithValue(ctx, contextKeyUser, user)
}

// UserFromContext 从请求上下文中获取当前用户，未认证时为 nil
func UserFromContext(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(contextKeyUser).(*domain.User); ok {
		return user
	}
	return nil
}

// userIDFromContext 优先取上下文中的用户，其次取内层回写的用户ID
func userIDFromContext(ctx context.Context) string {
	if user := UserFromContext(ctx); user != nil {
		return user.ID().Value()
	}
	if s := stateFromContext(ctx); s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.userID
	}
	return ""
}
