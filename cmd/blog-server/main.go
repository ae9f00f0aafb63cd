package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/api"
	"github.com/Ihury/graodireto-tech-blog-api/internal/cache"
	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/limiter"
	"github.com/Ihury/graodireto-tech-blog-api/internal/logger"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
	"github.com/Ihury/graodireto-tech-blog-api/internal/router"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, lg, nil
}

// initDatabase 初始化数据库连接并执行迁移，迁移在 HTTP 服务启动前完成
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg.Sugar().Infow("using migrations directory", "path", cfg.Migrations.Dir)
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return db, nil
}

// initLimiter 限流关闭时返回 nil，路由层据此跳过限流
func initLimiter(cfg *config.Config, client *redis.Client, lg *zap.Logger) (limiter.Limiter, error) {
	if !cfg.RateLimit.Enabled {
		lg.Sugar().Infow("rate limit disabled")
		return nil, nil
	}
	return limiter.New(client, &limiter.Config{
		Rate:      cfg.RateLimit.Rate,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: "blog:ratelimit",
	}, lg)
}

// buildDependencies 初始化依赖注入链：仓储 -> 服务 -> API处理器
func buildDependencies(cfg *config.Config, db *database.DB, c cache.Cache, publisher mq.EventPublisher, lim limiter.Limiter, lg *zap.Logger) *router.Dependencies {
	userRepo := repo.NewUserRepository(db)
	tagRepo := repo.NewTagRepository(db)
	commentRepo := repo.NewCommentRepository(db)
	articleRepo := repo.NewArticleRepository(db)
	if cfg.Cache.Enabled {
		articleRepo = repo.NewCachedArticleRepository(articleRepo, c, cfg.Cache.TTL, lg)
	}

	jwtService := service.NewJWTService(cfg, lg)
	authService := service.NewAuthService(userRepo, jwtService, service.NewBcryptHasher(cfg.Security.BcryptCost), publisher, lg)
	articleService := service.NewArticleService(articleRepo, tagRepo, publisher, lg)
	commentService := service.NewCommentService(commentRepo, articleRepo, publisher, lg)
	tagService := service.NewTagService(tagRepo, lg)

	checkers := map[string]api.HealthChecker{
		"mysql": db.PingContext,
	}
	if cfg.Cache.Enabled {
		checkers["cache"] = c.Ping
	}
	if rp, ok := publisher.(*mq.RabbitPublisher); ok {
		checkers["mq"] = rp.Ping
	}

	return &router.Dependencies{
		AuthHandler:    api.NewAuthHandler(authService, lg),
		ArticleHandler: api.NewArticleHandler(articleService, lg),
		CommentHandler: api.NewCommentHandler(commentService, lg),
		TagHandler:     api.NewTagHandler(tagService, lg),
		HealthHandler:  api.NewHealthHandler(cfg.App.Name, cfg.App.Version, checkers, lg),
		TokenValidator: authService,
		Limiter:        lim,
	}
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			lg.Sugar().Errorw("server error", "err", err)
			return
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

func main() {
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database connection", "err", err)
		}
	}()

	c, redisClient := cache.New(cfg, lg)
	defer func() { _ = c.Close() }()

	lim, err := initLimiter(cfg, redisClient, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize rate limiter", "err", err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	publisher, err := mq.NewPublisher(connectCtx, cfg.MQ.Enabled, mq.DefaultConfig(cfg.MQ.URL, cfg.MQ.Exchange), lg)
	cancel()
	if err != nil {
		lg.Sugar().Warnw("event publisher unavailable, events will be dropped", "err", err)
		publisher = mq.NewNopPublisher(lg)
	}
	defer func() {
		if rp, ok := publisher.(*mq.RabbitPublisher); ok {
			stats := rp.Stats()
			lg.Info("event publisher closing",
				zap.Int64("published", stats.Published),
				zap.Int64("failed", stats.Failed))
		}
		_ = publisher.Close()
	}()

	deps := buildDependencies(cfg, db, c, publisher, lim, lg)
	handler := router.New().Setup(cfg, deps, lg)

	startServer(cfg, handler, lg)
}
