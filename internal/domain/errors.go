// Package domain 定义博客的领域模型和核心业务规则。
// 值对象在构造时完成校验，实体只由合法的值对象组成，
// 因此非法数据永远不会进入实体。
package domain

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidation 所有值对象校验错误的哨兵值，可用 errors.Is 判断
var ErrValidation = errors.New("validation failed")

// ValidationError 值对象构造失败时返回的错误，只携带第一条未通过的规则
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 创建校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// check 按顺序执行规则，遇到第一条失败的规则即返回
func check(field string, value interface{}, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return NewValidationError(field, err.Error())
	}
	return nil
}
