// Package api 提供HTTP API处理器实现。
// API层负责处理HTTP请求/响应，进行数据验证和格式转换。
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// statusFromError 将业务错误映射为 HTTP 状态码、业务码和对外消息
func statusFromError(err error) (int, int, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, resp.CodeInvalidParam, ve.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, resp.CodeUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrUserInactive):
		return http.StatusUnauthorized, resp.CodeUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, resp.CodeForbidden, "you are not the author of this resource"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, resp.CodeNotFound, err.Error()
	case errors.Is(err, service.ErrStructural):
		return http.StatusUnprocessableEntity, resp.CodeUnprocessable, err.Error()
	case errors.Is(err, service.ErrSlugTaken), errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, resp.CodeConflict, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp.CodeTimeout, "request timeout"
	default:
		return http.StatusInternalServerError, resp.CodeInternalError, "internal server error"
	}
}

// writeError 写出错误响应，5xx 记录 Error 日志，其余记录 Debug
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	reqID := middleware.RequestIDFromContext(r.Context())
	status, code, msg := statusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.String("request_id", reqID), zap.Error(err))
	} else {
		logger.Debug(op+" rejected", zap.String("request_id", reqID), zap.Error(err))
	}
	resp.Error(w, status, code, msg, reqID, "")
}

// decodeJSON 解析请求体，失败时直接写出 400
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		reqID := middleware.RequestIDFromContext(r.Context())
		logger.Warn("invalid request body", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(w, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
		return false
	}
	return true
}

// currentUser 取出认证中间件注入的用户，缺失时写出 401
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required",
			middleware.RequestIDFromContext(r.Context()), "")
		return nil, false
	}
	return user, true
}

// queryInt 非法或缺失时返回 0，由分页层套用默认值
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// queryList 同时支持 ?tags=a,b 和 ?tags=a&tags=b
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
