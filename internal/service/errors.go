// Package service 提供业务逻辑层实现。
// 服务层负责协调领域对象和仓储，实现具体的业务用例。
package service

import (
	"errors"
	"fmt"
)

// ErrNotFound 所有“资源不存在”错误的父错误
var ErrNotFound = errors.New("not found")

// 资源不存在（包含已软删除的资源）
var (
	ErrArticleNotFound = fmt.Errorf("article %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
)

// 授权与冲突
var (
	ErrForbidden  = errors.New("forbidden")
	ErrSlugTaken  = errors.New("slug already taken")
	ErrUserExists = errors.New("user already exists")
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// ErrStructural 评论结构规则被违反时的父错误
var ErrStructural = errors.New("structural rule violated")

// StructuralError 请求在语法上合法，但违反了评论的结构规则
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return e.Reason }

// Is 使 errors.Is(err, ErrStructural) 成立
func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

var (
	ErrReplyToReply          = &StructuralError{Reason: "cannot reply to a reply"}
	ErrParentArticleMismatch = &StructuralError{Reason: "parent comment belongs to another article"}
)
