package domain

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SummaryMaxLength 摘要最大字符数，也是自动摘要的截取长度
const SummaryMaxLength = 280

// ArticleTitle 文章标题
type ArticleTitle struct {
	value string
}

// NewArticleTitle 去除首尾空白后长度需在5到200之间
func NewArticleTitle(raw string) (ArticleTitle, error) {
	v := strings.TrimSpace(raw)
	err := check("title", v,
		validation.Required.Error("title is required"),
		validation.RuneLength(5, 200).Error("title must be between 5 and 200 characters"),
	)
	if err != nil {
		return ArticleTitle{}, err
	}
	return ArticleTitle{value: v}, nil
}

func (t ArticleTitle) Value() string              { return t.value }
func (t ArticleTitle) String() string             { return t.value }
func (t ArticleTitle) Equals(o ArticleTitle) bool { return t.value == o.value }

// ArticleContent 文章正文
type ArticleContent struct {
	value string
}

// NewArticleContent 去除首尾空白后至少50个字符
func NewArticleContent(raw string) (ArticleContent, error) {
	v := strings.TrimSpace(raw)
	err := check("content", v,
		validation.Required.Error("content is required"),
		validation.RuneLength(50, 0).Error("content must be at least 50 characters"),
	)
	if err != nil {
		return ArticleContent{}, err
	}
	return ArticleContent{value: v}, nil
}

func (c ArticleContent) Value() string                { return c.value }
func (c ArticleContent) String() string               { return c.value }
func (c ArticleContent) Equals(o ArticleContent) bool { return c.value == o.value }

// ArticleSummary 可选的文章摘要。零值表示“没有摘要”，
// 与“空字符串摘要”是两种不同的状态。
type ArticleSummary struct {
	value   string
	present bool
}

// NewArticleSummary raw 为 nil 时返回缺省摘要；否则去除首尾空白后不超过280个字符
func NewArticleSummary(raw *string) (ArticleSummary, error) {
	if raw == nil {
		return ArticleSummary{}, nil
	}
	v := strings.TrimSpace(*raw)
	err := check("summary", v,
		validation.RuneLength(0, SummaryMaxLength).Error("summary must be at most 280 characters"),
	)
	if err != nil {
		return ArticleSummary{}, err
	}
	return ArticleSummary{value: v, present: true}, nil
}

// SummaryFromContent 取正文前280个字符作为摘要
func SummaryFromContent(content ArticleContent) ArticleSummary {
	r := []rune(content.Value())
	if len(r) > SummaryMaxLength {
		r = r[:SummaryMaxLength]
	}
	v := strings.TrimSpace(string(r))
	return ArticleSummary{value: v, present: true}
}

func (s ArticleSummary) Present() bool  { return s.present }
func (s ArticleSummary) Value() string  { return s.value }
func (s ArticleSummary) String() string { return s.value }

// Ptr 缺省时返回 nil，便于持久化为 NULL
func (s ArticleSummary) Ptr() *string {
	if !s.present {
		return nil
	}
	v := s.value
	return &v
}

func (s ArticleSummary) Equals(o ArticleSummary) bool {
	return s.present == o.present && s.value == o.value
}

// ArticleSlug 文章的URL标识，不做自动规范化，调用方需先 Slugify
type ArticleSlug struct {
	value string
}

// NewArticleSlug 校验slug格式，最长250个字符
func NewArticleSlug(raw string) (ArticleSlug, error) {
	err := check("slug", raw,
		validation.Required.Error("slug is required"),
		validation.RuneLength(0, 250).Error("slug must be at most 250 characters"),
		validation.Match(slugPattern).Error("slug must contain only lowercase letters, digits and single hyphens"),
	)
	if err != nil {
		return ArticleSlug{}, err
	}
	return ArticleSlug{value: raw}, nil
}

// ArticleSlugFromTitle 从标题派生slug
func ArticleSlugFromTitle(title ArticleTitle) (ArticleSlug, error) {
	return NewArticleSlug(Slugify(title.Value()))
}

func (s ArticleSlug) Value() string             { return s.value }
func (s ArticleSlug) String() string            { return s.value }
func (s ArticleSlug) Equals(o ArticleSlug) bool { return s.value == o.value }
