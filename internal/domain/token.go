package domain

import "time"

// TokenPayload 访问令牌解码后的载荷
type TokenPayload struct {
	Sub         string    `json:"sub"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IssuedAt    time.Time `json:"iat"`
	ExpiresAt   time.Time `json:"exp"`
}

// IsExpired 到达过期时间即视为过期
func (p TokenPayload) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
