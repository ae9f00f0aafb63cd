package domain

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxTagsPerArticle 单篇文章最多关联的标签数
const MaxTagsPerArticle = 10

// MaxPasswordBytes bcrypt 只接受不超过 72 字节的密码，按字节而不是字符计算
const MaxPasswordBytes = 72

var passwordBytes = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if len(s) > MaxPasswordBytes {
		return errors.New("must be at most 72 bytes long")
	}
	return nil
})

// uuidV4 大小写不敏感的 UUID v4 校验，空值跳过
var uuidV4 = validation.By(func(value interface{}) error {
	v, _ := validation.Indirect(value)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return is.UUIDv4.Validate(strings.ToLower(s))
})

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 0), passwordBytes),
		validation.Field(&r.DisplayName, validation.Required),
	)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse 登录成功的响应
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserData `json:"user"`
}

// CreateArticleRequest 创建文章请求，tags 为标签slug列表；cover_image_url 为空字符串等同于不设封面
type CreateArticleRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Summary       *string  `json:"summary,omitempty"`
	CoverImageURL *string  `json:"cover_image_url,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func (r CreateArticleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.CoverImageURL, is.URL),
		validation.Field(&r.Tags, validation.Length(0, MaxTagsPerArticle), validation.Each(validation.Required)),
	)
}

// UpdateArticleRequest 更新文章请求，字段为 nil 表示不修改。
// cover_image_url 传空字符串表示清除封面；tags 传空数组表示清空标签。
type UpdateArticleRequest struct {
	Title         *string  `json:"title,omitempty"`
	Content       *string  `json:"content,omitempty"`
	Summary       *string  `json:"summary,omitempty"`
	Slug          *string  `json:"slug,omitempty"`
	CoverImageURL *string  `json:"cover_image_url,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

func (r UpdateArticleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CoverImageURL, is.URL),
		validation.Field(&r.Tags, validation.Length(0, MaxTagsPerArticle), validation.Each(validation.Required)),
	)
}

// ListArticlesRequest 文章列表查询条件
type ListArticlesRequest struct {
	Page   int
	Size   int
	Search string
	Tags   []string
}

// CreateCommentRequest 创建评论请求，parent_id 为空表示顶层评论
type CreateCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

func (r CreateCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.ParentID, validation.NilOrNotEmpty, uuidV4),
	)
}

// ValidateRequest 校验请求体，返回字段名排序后第一个失败的字段
func ValidateRequest(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return NewValidationError(fields[0], fieldErrs[fields[0]].Error())
}
