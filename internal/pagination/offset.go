// Package pagination 提供两种分页策略：
// 文章列表使用的偏移分页（page/size/total），
// 以及评论串使用的游标分页（不透明游标，按 created_at + id 定位）。
package pagination

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 50
)

// OffsetParams 规范化后的偏移分页参数
type OffsetParams struct {
	Page int
	Size int
}

// NormalizeOffset 应用默认值并静默截断：page 至少为1，size 限制在 [1,50]。
// 非正数视为未提供。
func NormalizeOffset(page, size int) OffsetParams {
	if page < 1 {
		page = DefaultPage
	}
	return OffsetParams{Page: page, Size: ClampSize(size)}
}

// ClampSize size 未提供时取默认值，超过上限时截断为上限
func ClampSize(size int) int {
	if size < 1 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Offset 返回SQL OFFSET
func (p OffsetParams) Offset() int {
	return (p.Page - 1) * p.Size
}

// Limit 返回SQL LIMIT
func (p OffsetParams) Limit() int {
	return p.Size
}

// OffsetMeta 偏移分页的元信息
type OffsetMeta struct {
	Page        int   `json:"page"`
	Size        int   `json:"size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// NewOffsetMeta 根据总数计算总页数和前后页标记，total 为0时 TotalPages 为0
func NewOffsetMeta(p OffsetParams, total int64) OffsetMeta {
	if total < 0 {
		total = 0
	}
	size := int64(p.Size)
	if size < 1 {
		size = DefaultSize
	}
	totalPages := int((total + size - 1) / size)
	return OffsetMeta{
		Page:        p.Page,
		Size:        int(size),
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     p.Page < totalPages,
		HasPrevious: p.Page > 1,
	}
}

// OffsetPage 偏移分页结果
type OffsetPage[T any] struct {
	Items []T        `json:"items"`
	Meta  OffsetMeta `json:"meta"`
}

// NewOffsetPage 组装分页结果，items 为 nil 时输出空数组
func NewOffsetPage[T any](items []T, p OffsetParams, total int64) OffsetPage[T] {
	if items == nil {
		items = []T{}
	}
	return OffsetPage[T]{Items: items, Meta: NewOffsetMeta(p, total)}
}
