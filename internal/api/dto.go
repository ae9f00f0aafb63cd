package api

import (
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// repliesPreviewResponse 顶层评论附带的回复预览
type repliesPreviewResponse struct {
	Items      []domain.CommentData `json:"items"`
	NextCursor *string              `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

// commentWithRepliesResponse 顶层评论列表的单项
type commentWithRepliesResponse struct {
	domain.CommentData
	Replies repliesPreviewResponse `json:"replies"`
}

func toArticleData(articles []*domain.Article) []domain.ArticleData {
	out := make([]domain.ArticleData, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Snapshot())
	}
	return out
}

func toCommentData(comments []*domain.Comment) []domain.CommentData {
	out := make([]domain.CommentData, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Snapshot())
	}
	return out
}

func toTagData(tags []*domain.Tag) []domain.TagData {
	out := make([]domain.TagData, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Snapshot())
	}
	return out
}

func articlePage(p pagination.OffsetPage[*domain.Article]) pagination.OffsetPage[domain.ArticleData] {
	return pagination.OffsetPage[domain.ArticleData]{Items: toArticleData(p.Items), Meta: p.Meta}
}

func commentPage(p pagination.CursorPage[*domain.Comment]) pagination.CursorPage[domain.CommentData] {
	return pagination.CursorPage[domain.CommentData]{Items: toCommentData(p.Items), NextCursor: p.NextCursor}
}

func threadPage(p pagination.CursorPage[service.CommentWithReplies]) pagination.CursorPage[commentWithRepliesResponse] {
	items := make([]commentWithRepliesResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, commentWithRepliesResponse{
			CommentData: it.Comment.Snapshot(),
			Replies: repliesPreviewResponse{
				Items:      toCommentData(it.Replies.Items),
				NextCursor: it.Replies.NextCursor,
				HasMore:    it.Replies.HasMore,
			},
		})
	}
	return pagination.CursorPage[commentWithRepliesResponse]{Items: items, NextCursor: p.NextCursor}
}
