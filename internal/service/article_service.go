package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
)

// ArticleService 定义文章服务接口
type ArticleService interface {
	Create(ctx context.Context, authorID string, req domain.CreateArticleRequest) (*domain.Article, error)
	Update(ctx context.Context, authorID, articleID string, req domain.UpdateArticleRequest) (*domain.Article, error)
	Delete(ctx context.Context, authorID, articleID string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	List(ctx context.Context, req domain.ListArticlesRequest) (pagination.OffsetPage[*domain.Article], error)
}

// articleService 是 ArticleService 接口的实现
type articleService struct {
	articleRepo repo.ArticleRepository
	tagRepo     repo.TagRepository
	publisher   mq.EventPublisher
	logger      *zap.Logger
}

// NewArticleService 创建文章服务实例
func NewArticleService(articleRepo repo.ArticleRepository, tagRepo repo.TagRepository, publisher mq.EventPublisher, logger *zap.Logger) ArticleService {
	return &articleService{
		articleRepo: articleRepo,
		tagRepo:     tagRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create 创建文章
// 业务规则：
// 1. slug 由标题派生，与已有文章（包括已删除的）冲突时返回 ErrSlugTaken
// 2. 摘要未提供时取正文前280个字符
// 3. 标签按 slug 关联，不存在的标签以 slug 作为名称自动创建
func (s *articleService) Create(ctx context.Context, authorID string, req domain.CreateArticleRequest) (*domain.Article, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}

	author, err := domain.NewUUID(authorID)
	if err != nil {
		return nil, err
	}
	title, err := domain.NewArticleTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := domain.NewArticleContent(req.Content)
	if err != nil {
		return nil, err
	}

	params := domain.ArticleParams{
		AuthorID:      author,
		Title:         title,
		Content:       content,
		CoverImageURL: normalizeCover(req.CoverImageURL),
	}
	if req.Summary != nil {
		summary, err := domain.NewArticleSummary(req.Summary)
		if err != nil {
			return nil, err
		}
		params.Summary = &summary
	}

	// slug 冲突要在创建标签之前发现，被拒绝的请求不留下标签
	slug, err := domain.ArticleSlugFromTitle(title)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, slug); err != nil {
		return nil, err
	}
	params.Slug = &slug

	params.Tags, err = s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	article, err := domain.NewArticle(params)
	if err != nil {
		return nil, err
	}

	if err := s.articleRepo.Save(ctx, article); err != nil {
		s.logger.Error("failed to create article", zap.Error(err))
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.logger.Info("article created",
		zap.String("article_id", article.ID().Value()),
		zap.String("slug", article.Slug().Value()))

	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventArticleCreated, article.ID().Value(), articleEventPayload(article)))
	return article, nil
}

// Update 更新文章，只有作者可以修改
// 修改标题不会改变 slug；修改正文时重新派生摘要，除非同一请求显式给出摘要
func (s *articleService) Update(ctx context.Context, authorID, articleID string, req domain.UpdateArticleRequest) (*domain.Article, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}

	article, err := s.loadOwned(ctx, authorID, articleID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title, err := domain.NewArticleTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		article.UpdateTitle(title)
	}

	if req.Content != nil {
		content, err := domain.NewArticleContent(*req.Content)
		if err != nil {
			return nil, err
		}
		article.UpdateContent(content)
		if req.Summary == nil {
			article.UpdateSummary(domain.SummaryFromContent(content))
		}
	}

	if req.Summary != nil {
		summary, err := domain.NewArticleSummary(req.Summary)
		if err != nil {
			return nil, err
		}
		article.UpdateSummary(summary)
	}

	if req.Slug != nil {
		slug, err := domain.NewArticleSlug(domain.Slugify(*req.Slug))
		if err != nil {
			return nil, err
		}
		if !slug.Equals(article.Slug()) {
			if err := s.ensureSlugFree(ctx, slug); err != nil {
				return nil, err
			}
			article.UpdateSlug(slug)
		}
	}

	if req.CoverImageURL != nil {
		article.UpdateCoverImage(normalizeCover(req.CoverImageURL))
	}

	if req.Tags != nil {
		tags, err := s.resolveTags(ctx, req.Tags)
		if err != nil {
			return nil, err
		}
		article.UpdateTags(tags)
	}

	if err := s.articleRepo.Save(ctx, article); err != nil {
		s.logger.Error("failed to update article",
			zap.String("article_id", articleID),
			zap.Error(err))
		return nil, fmt.Errorf("update article: %w", err)
	}

	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventArticleUpdated, article.ID().Value(), articleEventPayload(article)))
	return article, nil
}

// Delete 软删除文章，只有作者可以删除
func (s *articleService) Delete(ctx context.Context, authorID, articleID string) error {
	article, err := s.loadOwned(ctx, authorID, articleID)
	if err != nil {
		return err
	}

	article.SoftDelete()
	if err := s.articleRepo.Delete(ctx, article); err != nil {
		s.logger.Error("failed to delete article",
			zap.String("article_id", articleID),
			zap.Error(err))
		return fmt.Errorf("delete article: %w", err)
	}

	s.logger.Info("article deleted", zap.String("article_id", articleID))
	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventArticleDeleted, article.ID().Value(), articleEventPayload(article)))
	return nil
}

func (s *articleService) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	uid, err := domain.NewUUID(id)
	if err != nil {
		return nil, ErrArticleNotFound
	}
	article, err := s.articleRepo.FindByID(ctx, uid.Value())
	if err != nil {
		s.logger.Error("failed to get article by id", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || article.IsDeleted() {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

func (s *articleService) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	if _, err := domain.NewArticleSlug(slug); err != nil {
		return nil, ErrArticleNotFound
	}
	article, err := s.articleRepo.FindBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("failed to get article by slug", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || article.IsDeleted() {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

// List 文章列表，按创建时间倒序
// 搜索词先 slugify 再按 slug 子串匹配；标签过滤匹配任意一个标签
func (s *articleService) List(ctx context.Context, req domain.ListArticlesRequest) (pagination.OffsetPage[*domain.Article], error) {
	params := pagination.NormalizeOffset(req.Page, req.Size)

	var filter repo.ArticleFilter
	if req.Search != "" {
		filter.SlugSearch = domain.Slugify(req.Search)
	}
	for _, t := range req.Tags {
		if slug := domain.Slugify(t); slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}

	articles, total, err := s.articleRepo.FindMany(ctx, filter, params.Limit(), params.Offset())
	if err != nil {
		s.logger.Error("failed to list articles", zap.Error(err))
		return pagination.OffsetPage[*domain.Article]{}, fmt.Errorf("list articles: %w", err)
	}
	return pagination.NewOffsetPage(articles, params, total), nil
}

// loadOwned 加载未删除的文章并校验作者
func (s *articleService) loadOwned(ctx context.Context, authorID, articleID string) (*domain.Article, error) {
	author, err := domain.NewUUID(authorID)
	if err != nil {
		return nil, ErrForbidden
	}
	article, err := s.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.IsAuthoredBy(author) {
		return nil, ErrForbidden
	}
	return article, nil
}

func (s *articleService) ensureSlugFree(ctx context.Context, slug domain.ArticleSlug) error {
	exists, err := s.articleRepo.SlugExists(ctx, slug.Value())
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return ErrSlugTaken
	}
	return nil
}

// resolveTags 将标签 slug 列表解析为文章标签：
// 去重并保持顺序；已停用的标签被忽略；不存在的标签以 slug 为名称创建。
func (s *articleService) resolveTags(ctx context.Context, raw []string) ([]domain.ArticleTag, error) {
	var slugs []string
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		slug, err := domain.NewTagSlug(domain.Slugify(r))
		if err != nil {
			continue
		}
		if seen[slug.Value()] {
			continue
		}
		seen[slug.Value()] = true
		slugs = append(slugs, slug.Value())
	}
	if len(slugs) == 0 {
		return []domain.ArticleTag{}, nil
	}

	existing, err := s.tagRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	bySlug := make(map[string]*domain.Tag, len(existing))
	for _, t := range existing {
		bySlug[t.Slug().Value()] = t
	}

	tags := make([]domain.ArticleTag, 0, len(slugs))
	for _, slug := range slugs {
		if t, ok := bySlug[slug]; ok {
			if t.IsActive() {
				tags = append(tags, domain.ArticleTag{Slug: slug, Name: t.Name().Value()})
			}
			continue
		}

		name, err := domain.NewTagName(slug)
		if err != nil {
			s.logger.Debug("skipping tag with invalid name", zap.String("slug", slug), zap.Error(err))
			continue
		}
		tagSlug, _ := domain.NewTagSlug(slug)
		tag, err := domain.NewTag(domain.TagParams{Name: name, Slug: &tagSlug})
		if err != nil {
			return nil, err
		}
		if err := s.tagRepo.Save(ctx, tag); err != nil {
			return nil, fmt.Errorf("create tag %s: %w", slug, err)
		}
		tags = append(tags, domain.ArticleTag{Slug: slug, Name: name.Value()})
	}
	return tags, nil
}

// normalizeCover 空字符串表示没有封面
func normalizeCover(url *string) *string {
	if url == nil || strings.TrimSpace(*url) == "" {
		return nil
	}
	v := strings.TrimSpace(*url)
	return &v
}

func articleEventPayload(a *domain.Article) map[string]interface{} {
	return map[string]interface{}{
		"slug":      a.Slug().Value(),
		"author_id": a.AuthorID().Value(),
		"title":     a.Title().Value(),
	}
}
