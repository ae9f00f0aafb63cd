package domain

import (
	"time"
)

// ArticleTag 文章关联的标签，顺序即展示顺序
type ArticleTag struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Article 文章聚合
type Article struct {
	id            Uuid
	authorID      Uuid
	title         ArticleTitle
	slug          ArticleSlug
	summary       ArticleSummary
	content       ArticleContent
	coverImageURL *string
	deleted       bool
	tags          []ArticleTag
	createdAt     time.Time
	updatedAt     time.Time
}

// ArticleParams 创建文章的参数，ID/Slug/Summary 为空时自动生成
type ArticleParams struct {
	ID            *Uuid
	AuthorID      Uuid
	Title         ArticleTitle
	Content       ArticleContent
	CoverImageURL *string
	Tags          []ArticleTag
	Slug          *ArticleSlug
	Summary       *ArticleSummary
}

// NewArticle 创建新文章：
// slug 未指定时由标题派生，摘要未指定时取正文前280个字符。
func NewArticle(p ArticleParams) (*Article, error) {
	id := GenerateUUID()
	if p.ID != nil {
		id = *p.ID
	}

	var slug ArticleSlug
	if p.Slug != nil {
		slug = *p.Slug
	} else {
		derived, err := ArticleSlugFromTitle(p.Title)
		if err != nil {
			return nil, err
		}
		slug = derived
	}

	summary := SummaryFromContent(p.Content)
	if p.Summary != nil {
		summary = *p.Summary
	}

	now := Now()
	return &Article{
		id:            id,
		authorID:      p.AuthorID,
		title:         p.Title,
		slug:          slug,
		summary:       summary,
		content:       p.Content,
		coverImageURL: copyString(p.CoverImageURL),
		tags:          copyTags(p.Tags),
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ArticleProps 重建文章所需的完整字段
type ArticleProps struct {
	ID            Uuid
	AuthorID      Uuid
	Title         ArticleTitle
	Slug          ArticleSlug
	Summary       ArticleSummary
	Content       ArticleContent
	CoverImageURL *string
	Deleted       bool
	Tags          []ArticleTag
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReconstituteArticle 从已持久化的数据重建文章，不做任何派生
func ReconstituteArticle(p ArticleProps) *Article {
	return &Article{
		id:            p.ID,
		authorID:      p.AuthorID,
		title:         p.Title,
		slug:          p.Slug,
		summary:       p.Summary,
		content:       p.Content,
		coverImageURL: copyString(p.CoverImageURL),
		deleted:       p.Deleted,
		tags:          copyTags(p.Tags),
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}
}

func (a *Article) ID() Uuid                { return a.id }
func (a *Article) AuthorID() Uuid          { return a.authorID }
func (a *Article) Title() ArticleTitle     { return a.title }
func (a *Article) Slug() ArticleSlug       { return a.slug }
func (a *Article) Summary() ArticleSummary { return a.summary }
func (a *Article) Content() ArticleContent { return a.content }
func (a *Article) CoverImageURL() *string  { return copyString(a.coverImageURL) }
func (a *Article) Tags() []ArticleTag      { return copyTags(a.tags) }
func (a *Article) IsDeleted() bool         { return a.deleted }
func (a *Article) CreatedAt() time.Time    { return a.createdAt }
func (a *Article) UpdatedAt() time.Time    { return a.updatedAt }

// IsAuthoredBy 判断文章是否属于指定用户
func (a *Article) IsAuthoredBy(userID Uuid) bool {
	return a.authorID.Equals(userID)
}

// UpdateTitle 只替换标题，不会重新生成slug
func (a *Article) UpdateTitle(title ArticleTitle) {
	a.title = title
	a.updatedAt = touch(a.updatedAt)
}

// UpdateContent 只替换正文，不会重新生成摘要
func (a *Article) UpdateContent(content ArticleContent) {
	a.content = content
	a.updatedAt = touch(a.updatedAt)
}

func (a *Article) UpdateSummary(summary ArticleSummary) {
	a.summary = summary
	a.updatedAt = touch(a.updatedAt)
}

// UpdateCoverImage url 为 nil 时清除封面
func (a *Article) UpdateCoverImage(url *string) {
	a.coverImageURL = copyString(url)
	a.updatedAt = touch(a.updatedAt)
}

func (a *Article) UpdateSlug(slug ArticleSlug) {
	a.slug = slug
	a.updatedAt = touch(a.updatedAt)
}

func (a *Article) UpdateTags(tags []ArticleTag) {
	a.tags = copyTags(tags)
	a.updatedAt = touch(a.updatedAt)
}

// SoftDelete 标记删除，不做物理删除
func (a *Article) SoftDelete() {
	a.deleted = true
	a.updatedAt = touch(a.updatedAt)
}

func (a *Article) Restore() {
	a.deleted = false
	a.updatedAt = touch(a.updatedAt)
}

// ArticleData 文章的平铺表示，用于持久化、缓存和接口输出
type ArticleData struct {
	ID            string       `json:"id"`
	AuthorID      string       `json:"author_id"`
	Title         string       `json:"title"`
	Slug          string       `json:"slug"`
	Summary       *string      `json:"summary"`
	Content       string       `json:"content"`
	CoverImageURL *string      `json:"cover_image_url"`
	IsDeleted     bool         `json:"is_deleted"`
	Tags          []ArticleTag `json:"tags"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Snapshot 导出文章当前状态
func (a *Article) Snapshot() ArticleData {
	tags := copyTags(a.tags)
	if tags == nil {
		tags = []ArticleTag{}
	}
	return ArticleData{
		ID:            a.id.Value(),
		AuthorID:      a.authorID.Value(),
		Title:         a.title.Value(),
		Slug:          a.slug.Value(),
		Summary:       a.summary.Ptr(),
		Content:       a.content.Value(),
		CoverImageURL: copyString(a.coverImageURL),
		IsDeleted:     a.deleted,
		Tags:          tags,
		CreatedAt:     a.createdAt,
		UpdatedAt:     a.updatedAt,
	}
}

// ToArticle 将平铺数据重新校验为值对象后重建文章
func (d ArticleData) ToArticle() (*Article, error) {
	id, err := NewUUID(d.ID)
	if err != nil {
		return nil, err
	}
	authorID, err := NewUUID(d.AuthorID)
	if err != nil {
		return nil, err
	}
	title, err := NewArticleTitle(d.Title)
	if err != nil {
		return nil, err
	}
	slug, err := NewArticleSlug(d.Slug)
	if err != nil {
		return nil, err
	}
	summary, err := NewArticleSummary(d.Summary)
	if err != nil {
		return nil, err
	}
	content, err := NewArticleContent(d.Content)
	if err != nil {
		return nil, err
	}
	return ReconstituteArticle(ArticleProps{
		ID:            id,
		AuthorID:      authorID,
		Title:         title,
		Slug:          slug,
		Summary:       summary,
		Content:       content,
		CoverImageURL: d.CoverImageURL,
		Deleted:       d.IsDeleted,
		Tags:          d.Tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}), nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTags(tags []ArticleTag) []ArticleTag {
	if tags == nil {
		return nil
	}
	out := make([]ArticleTag, len(tags))
	copy(out, tags)
	return out
}
