package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CommentContent 评论内容
type CommentContent struct {
	value string
}

// NewCommentContent 去除首尾空白后长度需在1到1000之间
func NewCommentContent(raw string) (CommentContent, error) {
	v := strings.TrimSpace(raw)
	err := check("content", v,
		validation.Required.Error("content is required"),
		validation.RuneLength(1, 1000).Error("content must be between 1 and 1000 characters"),
	)
	if err != nil {
		return CommentContent{}, err
	}
	return CommentContent{value: v}, nil
}

func (c CommentContent) Value() string                { return c.value }
func (c CommentContent) String() string               { return c.value }
func (c CommentContent) Equals(o CommentContent) bool { return c.value == o.value }

// CommentAuthor 读取评论时附带的作者摘要
type CommentAuthor struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Comment 评论。parentID 为空表示顶层评论，否则为回复。
// “回复不能再被回复”以及“回复必须与父评论属于同一篇文章”
// 由创建评论的用例在加载父评论后检查，实体本身不依赖仓储。
type Comment struct {
	id        Uuid
	articleID Uuid
	parentID  *Uuid
	authorID  Uuid
	content   CommentContent
	deleted   bool
	createdAt time.Time
	updatedAt time.Time
	author    *CommentAuthor
}

// CommentParams 创建评论的参数
type CommentParams struct {
	ID        *Uuid
	ArticleID Uuid
	ParentID  *Uuid
	AuthorID  Uuid
	Content   CommentContent
}

// NewComment 创建新评论
func NewComment(p CommentParams) *Comment {
	id := GenerateUUID()
	if p.ID != nil {
		id = *p.ID
	}
	now := Now()
	return &Comment{
		id:        id,
		articleID: p.ArticleID,
		parentID:  copyUUID(p.ParentID),
		authorID:  p.AuthorID,
		content:   p.Content,
		createdAt: now,
		updatedAt: now,
	}
}

// CommentProps 重建评论所需的完整字段
type CommentProps struct {
	ID        Uuid
	ArticleID Uuid
	ParentID  *Uuid
	AuthorID  Uuid
	Content   CommentContent
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    *CommentAuthor
}

// ReconstituteComment 从持久化数据重建评论
func ReconstituteComment(p CommentProps) *Comment {
	return &Comment{
		id:        p.ID,
		articleID: p.ArticleID,
		parentID:  copyUUID(p.ParentID),
		authorID:  p.AuthorID,
		content:   p.Content,
		deleted:   p.Deleted,
		createdAt: p.CreatedAt,
		updatedAt: p.UpdatedAt,
		author:    p.Author,
	}
}

func (c *Comment) ID() Uuid                { return c.id }
func (c *Comment) ArticleID() Uuid         { return c.articleID }
func (c *Comment) ParentID() *Uuid         { return copyUUID(c.parentID) }
func (c *Comment) AuthorID() Uuid          { return c.authorID }
func (c *Comment) Content() CommentContent { return c.content }
func (c *Comment) IsDeleted() bool         { return c.deleted }
func (c *Comment) CreatedAt() time.Time    { return c.createdAt }
func (c *Comment) UpdatedAt() time.Time    { return c.updatedAt }
func (c *Comment) Author() *CommentAuthor  { return c.author }

// IsReply 有父评论即为回复
func (c *Comment) IsReply() bool {
	return c.parentID != nil
}

func (c *Comment) IsAuthoredBy(userID Uuid) bool {
	return c.authorID.Equals(userID)
}

func (c *Comment) SoftDelete() {
	c.deleted = true
	c.updatedAt = touch(c.updatedAt)
}

func (c *Comment) Restore() {
	c.deleted = false
	c.updatedAt = touch(c.updatedAt)
}

// CommentData 评论的平铺表示
type CommentData struct {
	ID        string         `json:"id"`
	ArticleID string         `json:"article_id"`
	ParentID  *string        `json:"parent_id"`
	AuthorID  string         `json:"author_id"`
	Content   string         `json:"content"`
	IsDeleted bool           `json:"is_deleted"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Author    *CommentAuthor `json:"author,omitempty"`
}

// Snapshot 导出评论当前状态
func (c *Comment) Snapshot() CommentData {
	var parentID *string
	if c.parentID != nil {
		v := c.parentID.Value()
		parentID = &v
	}
	return CommentData{
		ID:        c.id.Value(),
		ArticleID: c.articleID.Value(),
		ParentID:  parentID,
		AuthorID:  c.authorID.Value(),
		Content:   c.content.Value(),
		IsDeleted: c.deleted,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
		Author:    c.author,
	}
}

// ToComment 校验平铺数据并重建评论
func (d CommentData) ToComment() (*Comment, error) {
	id, err := NewUUID(d.ID)
	if err != nil {
		return nil, err
	}
	articleID, err := NewUUID(d.ArticleID)
	if err != nil {
		return nil, err
	}
	authorID, err := NewUUID(d.AuthorID)
	if err != nil {
		return nil, err
	}
	var parentID *Uuid
	if d.ParentID != nil {
		p, err := NewUUID(*d.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &p
	}
	content, err := NewCommentContent(d.Content)
	if err != nil {
		return nil, err
	}
	return ReconstituteComment(CommentProps{
		ID:        id,
		ArticleID: articleID,
		ParentID:  parentID,
		AuthorID:  authorID,
		Content:   content,
		Deleted:   d.IsDeleted,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Author:    d.Author,
	}), nil
}

func copyUUID(u *Uuid) *Uuid {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
