package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// CommentHandler 评论相关的HTTP处理器
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler 创建评论处理器实例
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// ListByArticle 游标分页查询文章的顶层评论，每条附带回复预览
// GET /api/v1/articles/{id}/comments?size=&after=
func (h *CommentHandler) ListByArticle(w http.ResponseWriter, r *http.Request) {
	page, err := h.commentService.ListByArticle(r.Context(), r.PathValue("id"),
		queryInt(r, "size"), r.URL.Query().Get("after"))
	if err != nil {
		writeError(w, r, h.logger, "list comments", err)
		return
	}
	resp.OK(w, threadPage(page), middleware.RequestIDFromContext(r.Context()), "")
}

// ListReplies 游标分页查询某条评论的回复
// GET /api/v1/comments/{id}/replies?size=&after=
func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	page, err := h.commentService.ListReplies(r.Context(), r.PathValue("id"),
		queryInt(r, "size"), r.URL.Query().Get("after"))
	if err != nil {
		writeError(w, r, h.logger, "list replies", err)
		return
	}
	resp.OK(w, commentPage(page), middleware.RequestIDFromContext(r.Context()), "")
}

// Create 在文章下发表评论或回复
// POST /api/v1/articles/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateCommentRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	comment, err := h.commentService.Create(r.Context(), user.ID().Value(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, "create comment", err)
		return
	}
	resp.Created(w, comment.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}

// Delete 软删除评论，仅作者可操作
// DELETE /api/v1/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.commentService.Delete(r.Context(), user.ID().Value(), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, "delete comment", err)
		return
	}
	resp.OK(w, map[string]bool{"success": true}, middleware.RequestIDFromContext(r.Context()), "")
}
