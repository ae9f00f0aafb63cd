package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/cache"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// CachedArticleRepository 带缓存的文章仓储。
// 按ID缓存文章快照，按slug只缓存 slug→id 索引，slug 变更后旧索引在读取时自愈。
type CachedArticleRepository struct {
	repo   ArticleRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedArticleRepository 创建带缓存的文章仓储
func NewCachedArticleRepository(repo ArticleRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) ArticleRepository {
	return &CachedArticleRepository{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// FindByID 根据ID获取文章（带缓存）
func (r *CachedArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	cacheKey := articleIDCacheKey(id)

	// 尝试从缓存获取
	var data domain.ArticleData
	if err := r.cache.Get(ctx, cacheKey, &data); err == nil {
		article, err := data.ToArticle()
		if err == nil {
			return article, nil
		}
		r.logger.Warn("discard invalid cached article", zap.String("key", cacheKey), zap.Error(err))
		_ = r.cache.Del(ctx, cacheKey)
	}

	// 缓存未命中，从数据库获取
	article, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, nil
	}

	r.store(ctx, article)
	return article, nil
}

// FindBySlug 先通过 slug 索引定位ID，再走ID缓存
func (r *CachedArticleRepository) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	slugKey := articleSlugCacheKey(slug)

	var id string
	if err := r.cache.Get(ctx, slugKey, &id); err == nil && id != "" {
		article, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if article != nil && article.Slug().Value() == slug {
			return article, nil
		}
		// 索引已过期：文章被删除或换了slug
		_ = r.cache.Del(ctx, slugKey)
	}

	article, err := r.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, nil
	}

	r.store(ctx, article)
	return article, nil
}

// SlugExists 不缓存，唯一性检查必须读取数据库
func (r *CachedArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.repo.SlugExists(ctx, slug)
}

// FindMany 获取文章列表（不缓存，因为参数组合太多）
func (r *CachedArticleRepository) FindMany(ctx context.Context, filter ArticleFilter, limit, offset int) ([]*domain.Article, int64, error) {
	return r.repo.FindMany(ctx, filter, limit, offset)
}

// Save 保存文章（清除相关缓存）
func (r *CachedArticleRepository) Save(ctx context.Context, article *domain.Article) error {
	if err := r.repo.Save(ctx, article); err != nil {
		return err
	}
	r.evict(ctx, article.ID().Value(), article.Slug().Value())
	return nil
}

// Delete 删除文章（清除相关缓存）
func (r *CachedArticleRepository) Delete(ctx context.Context, article *domain.Article) error {
	if err := r.repo.Delete(ctx, article); err != nil {
		return err
	}
	r.evict(ctx, article.ID().Value(), article.Slug().Value())
	return nil
}

func (r *CachedArticleRepository) store(ctx context.Context, article *domain.Article) {
	id := article.ID().Value()
	if err := r.cache.Set(ctx, articleIDCacheKey(id), article.Snapshot(), r.ttl); err != nil {
		r.logger.Warn("cache article failed", zap.String("article_id", id), zap.Error(err))
		return
	}
	// 同时缓存slug索引
	if err := r.cache.Set(ctx, articleSlugCacheKey(article.Slug().Value()), id, r.ttl); err != nil {
		r.logger.Warn("cache article slug failed", zap.String("article_id", id), zap.Error(err))
	}
}

func (r *CachedArticleRepository) evict(ctx context.Context, id string, slugs ...string) {
	keys := []string{articleIDCacheKey(id)}
	for _, s := range slugs {
		keys = append(keys, articleSlugCacheKey(s))
	}
	if err := r.cache.Del(ctx, keys...); err != nil {
		r.logger.Warn("evict article cache failed", zap.String("article_id", id), zap.Error(err))
	}
}

// 缓存键生成方法
func articleIDCacheKey(id string) string {
	return fmt.Sprintf("article:id:%s", id)
}

func articleSlugCacheKey(slug string) string {
	return fmt.Sprintf("article:slug:%s", slug)
}
