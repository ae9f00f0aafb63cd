package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
)

// TagService 定义标签服务接口
type TagService interface {
	// List 激活的标签，按名称排序
	List(ctx context.Context, page, size int) (pagination.OffsetPage[*domain.Tag], error)
}

type tagService struct {
	tagRepo repo.TagRepository
	logger  *zap.Logger
}

// NewTagService 创建标签服务实例
func NewTagService(tagRepo repo.TagRepository, logger *zap.Logger) TagService {
	return &tagService{tagRepo: tagRepo, logger: logger}
}

func (s *tagService) List(ctx context.Context, page, size int) (pagination.OffsetPage[*domain.Tag], error) {
	params := pagination.NormalizeOffset(page, size)
	tags, total, err := s.tagRepo.FindMany(ctx, params.Limit(), params.Offset())
	if err != nil {
		s.logger.Error("failed to list tags", zap.Error(err))
		return pagination.OffsetPage[*domain.Tag]{}, fmt.Errorf("list tags: %w", err)
	}
	return pagination.NewOffsetPage(tags, params, total), nil
}
