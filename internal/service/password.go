package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// PasswordHasher 密码哈希与校验
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare 密码不匹配时返回 (false, nil)
	Compare(hash, password string) (bool, error)
}

// BcryptHasher 基于 bcrypt 的实现，cost 越高越慢
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost 不在 bcrypt 允许范围内时使用默认值
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password", "must be at most 72 bytes long")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare password: %w", err)
}
