// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/api"
	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/limiter"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	AuthHandler    *api.AuthHandler
	ArticleHandler *api.ArticleHandler
	CommentHandler *api.CommentHandler
	TagHandler     *api.TagHandler
	HealthHandler  *api.HealthHandler
	TokenValidator middleware.TokenValidator
	// Limiter 为 nil 时不启用限流
	Limiter limiter.Limiter
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由，并在 gin 引擎外层套上通用中间件链：
// RequestID -> Recovery -> Timeout -> CORS -> AccessLog -> gin
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	switch cfg.App.Env {
	case "prod":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.engine.HandleMethodNotAllowed = true
	r.deps = deps
	r.logger = lg

	r.setupRoutes()

	var h http.Handler = r.engine
	h = middleware.AccessLog(lg)(h)
	h = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(h)
	h = middleware.Timeout(cfg.App.RequestTimeout)(h)
	h = middleware.Recovery(lg)(h)
	h = middleware.RequestID(h)
	return h
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	r.engine.GET("/healthz", wrapHandler(r.deps.HealthHandler.HealthCheck))

	auth := wrapMiddleware(middleware.AuthMiddleware(r.deps.TokenValidator, r.logger))
	// 公开读接口：携带有效令牌时记录读者身份，无效令牌按匿名处理
	reader := wrapMiddleware(middleware.OptionalAuth(r.deps.TokenValidator, r.logger))

	v1 := r.engine.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", wrapHandler(r.deps.AuthHandler.Register))
			authGroup.POST("/login", r.rateLimit("login", limiter.IPKeyGenerator),
				wrapHandler(r.deps.AuthHandler.Login))
			authGroup.GET("/me", auth, wrapHandler(r.deps.AuthHandler.Me))
		}

		articles := v1.Group("/articles")
		{
			articles.GET("", reader, wrapHandler(r.deps.ArticleHandler.List))
			articles.GET("/slug/:slug", reader, wrapHandler(r.deps.ArticleHandler.GetBySlug))
			articles.GET("/:id", reader, wrapHandler(r.deps.ArticleHandler.GetByID))
			articles.POST("", auth, r.rateLimit("article_create", limiter.UserOrIPKeyGenerator),
				wrapHandler(r.deps.ArticleHandler.Create))
			articles.PATCH("/:id", auth, wrapHandler(r.deps.ArticleHandler.Update))
			articles.DELETE("/:id", auth, wrapHandler(r.deps.ArticleHandler.Delete))

			articles.GET("/:id/comments", reader, wrapHandler(r.deps.CommentHandler.ListByArticle))
			articles.POST("/:id/comments", auth, r.rateLimit("comment_create", limiter.UserOrIPKeyGenerator),
				wrapHandler(r.deps.CommentHandler.Create))
		}

		comments := v1.Group("/comments")
		{
			comments.GET("/:id/replies", reader, wrapHandler(r.deps.CommentHandler.ListReplies))
			comments.DELETE("/:id", auth, wrapHandler(r.deps.CommentHandler.Delete))
		}

		v1.GET("/tags", reader, wrapHandler(r.deps.TagHandler.List))
	}

	r.engine.NoRoute(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "route not found",
			middleware.RequestIDFromContext(c.Request.Context()), "")
	})
	r.engine.NoMethod(func(c *gin.Context) {
		resp.Error(c.Writer, http.StatusMethodNotAllowed, resp.CodeInvalidParam, "method not allowed",
			middleware.RequestIDFromContext(c.Request.Context()), "")
	})
}

// rateLimit 未配置限流器时返回空操作中间件
func (r *GinRouter) rateLimit(scope string, keyGen func(*gin.Context) string) gin.HandlerFunc {
	if r.deps.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return limiter.RateLimitMiddleware(&limiter.MiddlewareConfig{
		Limiter:      r.deps.Limiter,
		Scope:        scope,
		KeyGenerator: keyGen,
		Logger:       r.logger,
	})
}

// wrapHandler 将标准的 http.HandlerFunc 包装为 gin.HandlerFunc，
// 并把 gin 的路径参数写入 Request.PathValue
func wrapHandler(handler func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			c.Request.SetPathValue(p.Key, p.Value)
		}
		handler(c.Writer, c.Request)
	}
}

// wrapMiddleware 将标准库风格的中间件适配为 gin 中间件，
// 中间件未调用 next 时中止后续处理链
func wrapMiddleware(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			passed = true
			c.Request = req
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}
