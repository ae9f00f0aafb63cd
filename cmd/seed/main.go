// Package main 提供演示数据填充的命令行工具，数据经由服务层写入，
// 与 HTTP 接口走同一套校验与派生规则。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/logger"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

var (
	opts       seedOptions
	runMigrate bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the blog database with a demo author, tags and articles",
	Long: `Seed creates a demo author, a set of tags and a few articles.

Running it twice is safe: an existing author is reused and articles whose
slug already exists are skipped.

Examples:
  seed                                   # defaults
  seed --email me@example.com --articles 5
  seed --tags go,mysql,redis --migrate`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&opts.Email, "email", "demo@techblog.dev", "Author email")
	f.StringVar(&opts.Password, "password", "demo-password", "Author password")
	f.StringVar(&opts.DisplayName, "display-name", "Demo Author", "Author display name")
	f.StringSliceVar(&opts.Tags, "tags", []string{"Go", "Backend", "Databases"}, "Tag names to create")
	f.IntVar(&opts.Articles, "articles", 3, "Number of demo articles")
	f.BoolVar(&runMigrate, "migrate", false, "Apply pending migrations before seeding")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "seed", cfg.App.Version)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.New(cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	if runMigrate {
		if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
			return err
		}
	}

	publisher := mq.NewNopPublisher(lg)
	tagRepo := repo.NewTagRepository(db)
	s := &seeder{
		auth: service.NewAuthService(repo.NewUserRepository(db), service.NewJWTService(cfg, lg),
			service.NewBcryptHasher(cfg.Security.BcryptCost), publisher, lg),
		articles: service.NewArticleService(repo.NewArticleRepository(db), tagRepo, publisher, lg),
		tags:     tagRepo,
		logger:   lg,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	res, err := s.run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("author=%s tags=%d articles_created=%d articles_skipped=%d\n",
		res.UserID, res.Tags, res.Created, res.Skipped)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
