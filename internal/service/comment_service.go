package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
)

// RepliesPreviewSize 顶层评论列表中每条评论附带的回复数
const RepliesPreviewSize = 2

// RepliesPreview 顶层评论附带的最早几条回复
type RepliesPreview struct {
	Items      []*domain.Comment
	NextCursor *string
	HasMore    bool
}

// CommentWithReplies 顶层评论及其回复预览
type CommentWithReplies struct {
	Comment *domain.Comment
	Replies RepliesPreview
}

// CommentService 定义评论服务接口
type CommentService interface {
	Create(ctx context.Context, authorID, articleID string, req domain.CreateCommentRequest) (*domain.Comment, error)
	// ListByArticle 顶层评论，最新的在前
	ListByArticle(ctx context.Context, articleID string, size int, after string) (pagination.CursorPage[CommentWithReplies], error)
	// ListReplies 某条评论的回复，最早的在前
	ListReplies(ctx context.Context, commentID string, size int, after string) (pagination.CursorPage[*domain.Comment], error)
	Delete(ctx context.Context, authorID, commentID string) error
}

// commentService 是 CommentService 接口的实现
type commentService struct {
	commentRepo repo.CommentRepository
	articleRepo repo.ArticleRepository
	publisher   mq.EventPublisher
	logger      *zap.Logger
}

// NewCommentService 创建评论服务实例
func NewCommentService(commentRepo repo.CommentRepository, articleRepo repo.ArticleRepository, publisher mq.EventPublisher, logger *zap.Logger) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create 创建评论
// 业务规则：
// 1. 文章必须存在且未删除
// 2. 父评论必须存在且未删除，不能本身是回复，且属于同一篇文章
func (s *commentService) Create(ctx context.Context, authorID, articleID string, req domain.CreateCommentRequest) (*domain.Comment, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}

	author, err := domain.NewUUID(authorID)
	if err != nil {
		return nil, err
	}
	content, err := domain.NewCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	article, err := s.loadArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	var parentID *domain.Uuid
	if req.ParentID != nil {
		parent, err := s.loadComment(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.IsReply() {
			return nil, ErrReplyToReply
		}
		if !parent.ArticleID().Equals(article.ID()) {
			return nil, ErrParentArticleMismatch
		}
		id := parent.ID()
		parentID = &id
	}

	comment := domain.NewComment(domain.CommentParams{
		ArticleID: article.ID(),
		ParentID:  parentID,
		AuthorID:  author,
		Content:   content,
	})
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		s.logger.Error("failed to create comment", zap.Error(err))
		return nil, fmt.Errorf("create comment: %w", err)
	}

	// 重新读取以带上作者信息
	saved, err := s.commentRepo.FindByID(ctx, comment.ID().Value())
	if err != nil {
		return nil, fmt.Errorf("reload comment: %w", err)
	}
	if saved != nil {
		comment = saved
	}

	payload := map[string]interface{}{
		"article_id": article.ID().Value(),
		"author_id":  author.Value(),
	}
	if parentID != nil {
		payload["parent_id"] = parentID.Value()
	}
	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventCommentCreated, comment.ID().Value(), payload))

	return comment, nil
}

func (s *commentService) ListByArticle(ctx context.Context, articleID string, size int, after string) (pagination.CursorPage[CommentWithReplies], error) {
	article, err := s.loadArticle(ctx, articleID)
	if err != nil {
		return pagination.CursorPage[CommentWithReplies]{}, err
	}

	params := pagination.NormalizeCursor(size, after)
	rows, err := s.commentRepo.FindTopLevelByArticle(ctx, article.ID().Value(), params.After, params.FetchLimit())
	if err != nil {
		s.logger.Error("failed to list comments", zap.String("article_id", articleID), zap.Error(err))
		return pagination.CursorPage[CommentWithReplies]{}, fmt.Errorf("list comments: %w", err)
	}
	page := pagination.FromRawData(rows, params.Size, commentKey)

	parentIDs := make([]string, 0, len(page.Items))
	for _, c := range page.Items {
		parentIDs = append(parentIDs, c.ID().Value())
	}

	var previews map[string][]*domain.Comment
	if len(parentIDs) > 0 {
		previews, err = s.commentRepo.FindRepliesPreview(ctx, parentIDs, RepliesPreviewSize+1)
		if err != nil {
			s.logger.Error("failed to load replies preview", zap.Error(err))
			return pagination.CursorPage[CommentWithReplies]{}, fmt.Errorf("load replies preview: %w", err)
		}
	}

	items := make([]CommentWithReplies, 0, len(page.Items))
	for _, c := range page.Items {
		replies := pagination.FromRawData(previews[c.ID().Value()], RepliesPreviewSize, commentKey)
		items = append(items, CommentWithReplies{
			Comment: c,
			Replies: RepliesPreview{
				Items:      replies.Items,
				NextCursor: replies.NextCursor,
				HasMore:    replies.NextCursor != nil,
			},
		})
	}

	return pagination.CursorPage[CommentWithReplies]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *commentService) ListReplies(ctx context.Context, commentID string, size int, after string) (pagination.CursorPage[*domain.Comment], error) {
	parent, err := s.loadComment(ctx, commentID)
	if err != nil {
		return pagination.CursorPage[*domain.Comment]{}, err
	}

	params := pagination.NormalizeCursor(size, after)
	rows, err := s.commentRepo.FindReplies(ctx, parent.ID().Value(), params.After, params.FetchLimit())
	if err != nil {
		s.logger.Error("failed to list replies", zap.String("comment_id", commentID), zap.Error(err))
		return pagination.CursorPage[*domain.Comment]{}, fmt.Errorf("list replies: %w", err)
	}
	return pagination.FromRawData(rows, params.Size, commentKey), nil
}

// Delete 软删除评论，只有作者可以删除。回复不随父评论一起删除。
func (s *commentService) Delete(ctx context.Context, authorID, commentID string) error {
	author, err := domain.NewUUID(authorID)
	if err != nil {
		return ErrForbidden
	}
	comment, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !comment.IsAuthoredBy(author) {
		return ErrForbidden
	}

	comment.SoftDelete()
	if err := s.commentRepo.Delete(ctx, comment); err != nil {
		s.logger.Error("failed to delete comment", zap.String("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("delete comment: %w", err)
	}

	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventCommentDeleted, comment.ID().Value(), map[string]interface{}{
		"article_id": comment.ArticleID().Value(),
	}))
	return nil
}

func (s *commentService) loadArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	uid, err := domain.NewUUID(articleID)
	if err != nil {
		return nil, ErrArticleNotFound
	}
	article, err := s.articleRepo.FindByID(ctx, uid.Value())
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || article.IsDeleted() {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

func (s *commentService) loadComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	uid, err := domain.NewUUID(commentID)
	if err != nil {
		return nil, ErrCommentNotFound
	}
	comment, err := s.commentRepo.FindByID(ctx, uid.Value())
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment == nil || comment.IsDeleted() {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func commentKey(c *domain.Comment) (string, time.Time) {
	return c.ID().Value(), c.CreatedAt()
}
