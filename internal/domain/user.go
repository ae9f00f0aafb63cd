package domain

import (
	"time"
)

// User 用户。新用户默认处于激活状态，只有激活用户可以登录。
type User struct {
	id           Uuid
	email        Email
	passwordHash PasswordHash
	displayName  DisplayName
	avatarURL    *string
	active       bool
	lastLoginAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// UserParams 创建用户的参数
type UserParams struct {
	ID           *Uuid
	Email        Email
	PasswordHash PasswordHash
	DisplayName  DisplayName
	AvatarURL    *string
}

// NewUser 创建新用户
func NewUser(p UserParams) *User {
	id := GenerateUUID()
	if p.ID != nil {
		id = *p.ID
	}
	now := Now()
	return &User{
		id:           id,
		email:        p.Email,
		passwordHash: p.PasswordHash,
		displayName:  p.DisplayName,
		avatarURL:    copyString(p.AvatarURL),
		active:       true,
		createdAt:    now,
		updatedAt:    now,
	}
}

// UserProps 重建用户所需的完整字段
type UserProps struct {
	ID           Uuid
	Email        Email
	PasswordHash PasswordHash
	DisplayName  DisplayName
	AvatarURL    *string
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReconstituteUser 从持久化数据重建用户
func ReconstituteUser(p UserProps) *User {
	return &User{
		id:           p.ID,
		email:        p.Email,
		passwordHash: p.PasswordHash,
		displayName:  p.DisplayName,
		avatarURL:    copyString(p.AvatarURL),
		active:       p.Active,
		lastLoginAt:  copyTime(p.LastLoginAt),
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

func (u *User) ID() Uuid                   { return u.id }
func (u *User) Email() Email               { return u.email }
func (u *User) PasswordHash() PasswordHash { return u.passwordHash }
func (u *User) DisplayName() DisplayName   { return u.displayName }
func (u *User) AvatarURL() *string         { return copyString(u.avatarURL) }
func (u *User) IsActive() bool             { return u.active }
func (u *User) LastLoginAt() *time.Time    { return copyTime(u.lastLoginAt) }
func (u *User) CreatedAt() time.Time       { return u.createdAt }
func (u *User) UpdatedAt() time.Time       { return u.updatedAt }

func (u *User) Activate() {
	u.active = true
	u.updatedAt = touch(u.updatedAt)
}

// Deactivate 停用后该用户无法登录，已签发的令牌也会在校验时被拒绝
func (u *User) Deactivate() {
	u.active = false
	u.updatedAt = touch(u.updatedAt)
}

// UpdateLastLogin 记录本次登录时间
func (u *User) UpdateLastLogin() {
	now := touch(u.updatedAt)
	u.lastLoginAt = &now
	u.updatedAt = now
}

func (u *User) ChangeDisplayName(name DisplayName) {
	u.displayName = name
	u.updatedAt = touch(u.updatedAt)
}

func (u *User) ChangeAvatarURL(url *string) {
	u.avatarURL = copyString(url)
	u.updatedAt = touch(u.updatedAt)
}

// UserData 用户的平铺表示，密码哈希不参与JSON序列化
type UserData struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	AvatarURL    *string    `json:"avatar_url"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Snapshot 导出用户当前状态
func (u *User) Snapshot() UserData {
	return UserData{
		ID:           u.id.Value(),
		Email:        u.email.Value(),
		PasswordHash: u.passwordHash.Value(),
		DisplayName:  u.displayName.Value(),
		AvatarURL:    copyString(u.avatarURL),
		IsActive:     u.active,
		LastLoginAt:  copyTime(u.lastLoginAt),
		CreatedAt:    u.createdAt,
		UpdatedAt:    u.updatedAt,
	}
}

// ToUser 校验平铺数据并重建用户
func (d UserData) ToUser() (*User, error) {
	id, err := NewUUID(d.ID)
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(d.Email)
	if err != nil {
		return nil, err
	}
	hash, err := NewPasswordHash(d.PasswordHash)
	if err != nil {
		return nil, err
	}
	name, err := NewDisplayName(d.DisplayName)
	if err != nil {
		return nil, err
	}
	return ReconstituteUser(UserProps{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		AvatarURL:    d.AvatarURL,
		Active:       d.IsActive,
		LastLoginAt:  d.LastLoginAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}), nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
