package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// UserRepository 定义用户数据访问接口
// 使用接口可以方便单元测试时进行模拟（mock）
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// userRepo 是 UserRepository 接口的数据库实现
type userRepo struct {
	db *database.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, password_hash, display_name, avatar_url, is_active, last_login_at, created_at, updated_at`

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		d         domain.UserData
		avatar    sql.NullString
		lastLogin sql.NullTime
	)
	err := s.Scan(
		&d.ID,
		&d.Email,
		&d.PasswordHash,
		&d.DisplayName,
		&avatar,
		&d.IsActive,
		&lastLogin,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.AvatarURL = nullStringPtr(avatar)
	if lastLogin.Valid {
		t := lastLogin.Time
		d.LastLoginAt = &t
	}

	user, err := d.ToUser()
	if err != nil {
		return nil, fmt.Errorf("reconstitute user %s: %w", d.ID, err)
	}
	return user, nil
}

// FindByID 根据ID查询用户，停用的用户同样返回，由调用方判断
func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // 用户不存在
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// FindByEmail 根据邮箱查询用户，比较不区分大小写（由列排序规则保证）
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // 用户不存在
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// Save 插入或更新用户
// 注意：这里不处理密码哈希，密码哈希应该在服务层处理
func (r *userRepo) Save(ctx context.Context, user *domain.User) error {
	d := user.Snapshot()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, display_name, avatar_url, is_active, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			email = VALUES(email),
			password_hash = VALUES(password_hash),
			display_name = VALUES(display_name),
			avatar_url = VALUES(avatar_url),
			is_active = VALUES(is_active),
			last_login_at = VALUES(last_login_at),
			updated_at = VALUES(updated_at)
	`,
		d.ID,
		d.Email,
		d.PasswordHash,
		d.DisplayName,
		d.AvatarURL,
		d.IsActive,
		d.LastLoginAt,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Delete 删除用户（软删除，设置is_active为false）
func (r *userRepo) Delete(ctx context.Context, id string) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, domain.Now(), id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
