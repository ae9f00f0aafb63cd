package domain

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// slugPattern 小写字母、数字，以单个连字符分隔
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Uuid 版本4的UUID标识
type Uuid struct {
	value string
}

// NewUUID 校验并包装UUID字符串，大写输入统一转为小写
func NewUUID(raw string) (Uuid, error) {
	raw = strings.ToLower(raw)
	err := check("id", raw,
		validation.Required.Error("id is required"),
		is.UUIDv4.Error("id must be a valid UUID v4"),
	)
	if err != nil {
		return Uuid{}, err
	}
	return Uuid{value: raw}, nil
}

// GenerateUUID 生成新的UUID
func GenerateUUID() Uuid {
	return Uuid{value: uuid.NewString()}
}

func (u Uuid) Value() string      { return u.value }
func (u Uuid) String() string     { return u.value }
func (u Uuid) Equals(o Uuid) bool { return u.value == o.value }
func (u Uuid) IsZero() bool       { return u.value == "" }

// Email 邮箱地址，比较时忽略大小写
type Email struct {
	value string
}

// NewEmail 校验邮箱格式与长度
func NewEmail(raw string) (Email, error) {
	err := check("email", raw,
		validation.Required.Error("email is required"),
		validation.RuneLength(0, 320).Error("email must be at most 320 characters"),
		is.EmailFormat.Error("email must be a valid email address"),
	)
	if err != nil {
		return Email{}, err
	}
	return Email{value: raw}, nil
}

func (e Email) Value() string  { return e.value }
func (e Email) String() string { return e.value }

// Equals 忽略大小写比较
func (e Email) Equals(o Email) bool {
	return strings.EqualFold(e.value, o.value)
}

// DisplayName 用户昵称
type DisplayName struct {
	value string
}

// NewDisplayName 去除首尾空白后长度需在2到100之间
func NewDisplayName(raw string) (DisplayName, error) {
	v := strings.TrimSpace(raw)
	err := check("display_name", v,
		validation.Required.Error("display name is required"),
		validation.RuneLength(2, 100).Error("display name must be between 2 and 100 characters"),
	)
	if err != nil {
		return DisplayName{}, err
	}
	return DisplayName{value: v}, nil
}

func (d DisplayName) Value() string             { return d.value }
func (d DisplayName) String() string            { return d.value }
func (d DisplayName) Equals(o DisplayName) bool { return d.value == o.value }

// PasswordHash 密码哈希，内容不透明
type PasswordHash struct {
	value string
}

// NewPasswordHash 只要求非空
func NewPasswordHash(raw string) (PasswordHash, error) {
	if err := check("password_hash", raw, validation.Required.Error("password hash is required")); err != nil {
		return PasswordHash{}, err
	}
	return PasswordHash{value: raw}, nil
}

func (p PasswordHash) Value() string              { return p.value }
func (p PasswordHash) String() string             { return p.value }
func (p PasswordHash) Equals(o PasswordHash) bool { return p.value == o.value }

// AccessToken 已签名的访问令牌
type AccessToken struct {
	value string
}

// NewAccessToken 只要求非空
func NewAccessToken(raw string) (AccessToken, error) {
	if err := check("access_token", raw, validation.Required.Error("access token is required")); err != nil {
		return AccessToken{}, err
	}
	return AccessToken{value: raw}, nil
}

func (a AccessToken) Value() string             { return a.value }
func (a AccessToken) String() string            { return a.value }
func (a AccessToken) Equals(o AccessToken) bool { return a.value == o.value }
