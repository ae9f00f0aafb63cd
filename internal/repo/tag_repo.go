package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// TagRepository 定义标签数据访问接口
type TagRepository interface {
	// FindMany 激活的标签，按名称排序，同时返回总数
	FindMany(ctx context.Context, limit, offset int) ([]*domain.Tag, int64, error)
	// FindBySlugs 返回已存在的标签（包含停用的），顺序不保证
	FindBySlugs(ctx context.Context, slugs []string) ([]*domain.Tag, error)
	Save(ctx context.Context, tag *domain.Tag) error
}

type tagRepo struct {
	db *database.DB
}

// NewTagRepository 创建标签仓储实例
func NewTagRepository(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

func scanTag(s rowScanner) (*domain.Tag, error) {
	var d domain.TagData
	if err := s.Scan(&d.Slug, &d.Name, &d.IsActive, &d.CreatedAt); err != nil {
		return nil, err
	}
	tag, err := d.ToTag()
	if err != nil {
		return nil, fmt.Errorf("reconstitute tag %s: %w", d.Slug, err)
	}
	return tag, nil
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) FindMany(ctx context.Context, limit, offset int) ([]*domain.Tag, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE is_active = TRUE`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT slug, name, is_active, created_at
		FROM tags
		WHERE is_active = TRUE
		ORDER BY name ASC, slug ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query tags: %w", err)
	}
	tags, err := collectTags(rows)
	if err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (r *tagRepo) FindBySlugs(ctx context.Context, slugs []string) ([]*domain.Tag, error) {
	if len(slugs) == 0 {
		return []*domain.Tag{}, nil
	}

	query := fmt.Sprintf(`SELECT slug, name, is_active, created_at FROM tags WHERE slug IN (%s)`, placeholders(len(slugs)))
	rows, err := r.db.QueryContext(ctx, query, stringArgs(slugs)...)
	if err != nil {
		return nil, fmt.Errorf("query tags by slug: %w", err)
	}
	return collectTags(rows)
}

// Save 插入或更新标签，slug 为主键不可修改
func (r *tagRepo) Save(ctx context.Context, tag *domain.Tag) error {
	d := tag.Snapshot()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (slug, name, is_active, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			is_active = VALUES(is_active)
	`, d.Slug, d.Name, d.IsActive, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}
