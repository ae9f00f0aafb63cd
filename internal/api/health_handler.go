package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
)

// HealthChecker 依赖探活函数，例如数据库 PingContext、Redis Ping
type HealthChecker func(ctx context.Context) error

// HealthHandler 健康检查处理器
type HealthHandler struct {
	service  string
	version  string
	checkers map[string]HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler 创建健康检查处理器，checkers 为空时只返回进程存活
func NewHealthHandler(service, version string, checkers map[string]HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{service: service, version: version, checkers: checkers, logger: logger}
}

// HealthCheck GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checkers[name](ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}

	info := map[string]interface{}{
		"service":      h.service,
		"status":       status,
		"version":      h.version,
		"timestamp":    time.Now().Unix(),
		"dependencies": deps,
	}
	if status != "healthy" {
		resp.WriteJSON(w, http.StatusServiceUnavailable, resp.Envelope{
			Code:      resp.CodeInternalError,
			Message:   status,
			Data:      info,
			RequestID: reqID,
		})
		return
	}
	resp.OK(w, info, reqID, "")
}
