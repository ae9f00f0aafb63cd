package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// AuthHandler 认证相关的HTTP处理器
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register 处理用户注册请求
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.RegisterRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, "register", err)
		return
	}

	h.logger.Info("user registered",
		zap.String("request_id", reqID),
		zap.String("user_id", user.ID().Value()))
	resp.Created(w, user.Snapshot(), reqID, "")
}

// Login 处理用户登录请求
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.RequestIDFromContext(r.Context())

	var req domain.LoginRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, "login", err)
		return
	}

	resp.OK(w, result, reqID, "")
}

// Me 返回当前登录用户的资料
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	me, err := h.authService.Me(r.Context(), user.ID().Value())
	if err != nil {
		writeError(w, r, h.logger, "get profile", err)
		return
	}
	resp.OK(w, me.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}
