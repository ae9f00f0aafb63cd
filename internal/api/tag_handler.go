package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/middleware"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/resp"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

// TagHandler 标签查询处理器
type TagHandler struct {
	tagService service.TagService
	logger     *zap.Logger
}

func NewTagHandler(tagService service.TagService, logger *zap.Logger) *TagHandler {
	return &TagHandler{tagService: tagService, logger: logger}
}

// List GET /api/v1/tags?page=&size=
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.tagService.List(r.Context(), queryInt(r, "page"), queryInt(r, "size"))
	if err != nil {
		writeError(w, r, h.logger, "list tags", err)
		return
	}
	out := pagination.OffsetPage[domain.TagData]{Items: toTagData(page.Items), Meta: page.Meta}
	resp.OK(w, out, middleware.RequestIDFromContext(r.Context()), "")
}
