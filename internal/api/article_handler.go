package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// ArticleHandler 文章相关的HTTP处理器
type ArticleHandler struct {
	articleService service.ArticleService
	logger         *zap.Logger
}

// NewArticleHandler 创建文章处理器实例
func NewArticleHandler(articleService service.ArticleService, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		logger:         logger,
	}
}

// List 分页查询文章
// GET /api/v1/articles?page=&size=&search=&tags=a,b
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	req := domain.ListArticlesRequest{
		Page:   queryInt(r, "page"),
		Size:   queryInt(r, "size"),
		Search: r.URL.Query().Get("search"),
		Tags:   queryList(r, "tags"),
	}

	page, err := h.articleService.List(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, "list articles", err)
		return
	}
	resp.OK(w, articlePage(page), middleware.RequestIDFromContext(r.Context()), "")
}

// GetByID 按ID查询文章
// GET /api/v1/articles/{id}
func (h *ArticleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, "get article", err)
		return
	}
	resp.OK(w, article.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}

// GetBySlug 按slug查询文章
// GET /api/v1/articles/slug/{slug}
func (h *ArticleHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.articleService.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, h.logger, "get article by slug", err)
		return
	}
	resp.OK(w, article.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}

// Create 创建文章，作者为当前用户
// POST /api/v1/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.CreateArticleRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	article, err := h.articleService.Create(r.Context(), user.ID().Value(), req)
	if err != nil {
		writeError(w, r, h.logger, "create article", err)
		return
	}
	resp.Created(w, article.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}

// Update 部分更新文章，仅作者可操作
// PATCH /api/v1/articles/{id}
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req domain.UpdateArticleRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	article, err := h.articleService.Update(r.Context(), user.ID().Value(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, h.logger, "update article", err)
		return
	}
	resp.OK(w, article.Snapshot(), middleware.RequestIDFromContext(r.Context()), "")
}

// Delete 软删除文章，仅作者可操作
// DELETE /api/v1/articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.articleService.Delete(r.Context(), user.ID().Value(), r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, "delete article", err)
		return
	}
	resp.OK(w, map[string]bool{"success": true}, middleware.RequestIDFromContext(r.Context()), "")
}
