package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// TokenValidator 校验访问令牌并返回对应的激活用户
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware Bearer 令牌认证中间件
// 验证 Authorization 头中的令牌，并将用户注入到请求上下文中
func AuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				logger.Debug("missing or malformed authorization header", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authorization token required", reqID, "")
				return
			}

			user, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				logger.Warn("token validation failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, authErrorMessage(err), reqID, "")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth 可选认证中间件
// 令牌有效时注入用户，缺失或无效时按匿名请求继续处理
func OptionalAuth(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				logger.Debug("optional auth token validation failed",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, service.ErrUserInactive):
		return "user is inactive"
	case errors.Is(err, service.ErrUserNotFound):
		return "user not found"
	default:
		return "invalid token"
	}
}
