package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TagName 标签名称
type TagName struct {
	value string
}

// NewTagName 去除首尾空白后长度需在2到60之间
func NewTagName(raw string) (TagName, error) {
	v := strings.TrimSpace(raw)
	err := check("name", v,
		validation.Required.Error("tag name is required"),
		validation.RuneLength(2, 60).Error("tag name must be between 2 and 60 characters"),
	)
	if err != nil {
		return TagName{}, err
	}
	return TagName{value: v}, nil
}

func (n TagName) Value() string         { return n.value }
func (n TagName) String() string        { return n.value }
func (n TagName) Equals(o TagName) bool { return n.value == o.value }

// TagSlug 标签的唯一标识
type TagSlug struct {
	value string
}

// NewTagSlug 校验slug格式，最长80个字符
func NewTagSlug(raw string) (TagSlug, error) {
	err := check("slug", raw,
		validation.Required.Error("tag slug is required"),
		validation.RuneLength(0, 80).Error("tag slug must be at most 80 characters"),
		validation.Match(slugPattern).Error("tag slug must contain only lowercase letters, digits and single hyphens"),
	)
	if err != nil {
		return TagSlug{}, err
	}
	return TagSlug{value: raw}, nil
}

// TagSlugFromName 从标签名派生slug
func TagSlugFromName(name TagName) (TagSlug, error) {
	return NewTagSlug(Slugify(name.Value()))
}

func (s TagSlug) Value() string         { return s.value }
func (s TagSlug) String() string        { return s.value }
func (s TagSlug) Equals(o TagSlug) bool { return s.value == o.value }

// Tag 标签，作为准静态的参考数据，没有更新时间
type Tag struct {
	slug      TagSlug
	name      TagName
	active    bool
	createdAt time.Time
}

// TagParams 创建标签的参数，Slug 为空时由名称派生
type TagParams struct {
	Name TagName
	Slug *TagSlug
}

// NewTag 创建新标签，默认激活
func NewTag(p TagParams) (*Tag, error) {
	var slug TagSlug
	if p.Slug != nil {
		slug = *p.Slug
	} else {
		derived, err := TagSlugFromName(p.Name)
		if err != nil {
			return nil, err
		}
		slug = derived
	}
	return &Tag{
		slug:      slug,
		name:      p.Name,
		active:    true,
		createdAt: Now(),
	}, nil
}

// TagProps 重建标签所需的完整字段
type TagProps struct {
	Slug      TagSlug
	Name      TagName
	Active    bool
	CreatedAt time.Time
}

func ReconstituteTag(p TagProps) *Tag {
	return &Tag{
		slug:      p.Slug,
		name:      p.Name,
		active:    p.Active,
		createdAt: p.CreatedAt,
	}
}

func (t *Tag) Slug() TagSlug        { return t.slug }
func (t *Tag) Name() TagName        { return t.name }
func (t *Tag) IsActive() bool       { return t.active }
func (t *Tag) CreatedAt() time.Time { return t.createdAt }

func (t *Tag) Activate()   { t.active = true }
func (t *Tag) Deactivate() { t.active = false }

// TagData 标签的平铺表示
type TagData struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) Snapshot() TagData {
	return TagData{
		Slug:      t.slug.Value(),
		Name:      t.name.Value(),
		IsActive:  t.active,
		CreatedAt: t.createdAt,
	}
}

// ToTag 校验平铺数据并重建标签
func (d TagData) ToTag() (*Tag, error) {
	slug, err := NewTagSlug(d.Slug)
	if err != nil {
		return nil, err
	}
	name, err := NewTagName(d.Name)
	if err != nil {
		return nil, err
	}
	return ReconstituteTag(TagProps{
		Slug:      slug,
		Name:      name,
		Active:    d.IsActive,
		CreatedAt: d.CreatedAt,
	}), nil
}
