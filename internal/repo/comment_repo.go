package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
)

// CommentRepository 定义评论数据访问接口。
// 列表方法返回最多 limit 条记录，调用方传入 size+1 以判断是否还有下一页。
type CommentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// FindTopLevelByArticle 文章的顶层评论，按 created_at DESC, id DESC
	FindTopLevelByArticle(ctx context.Context, articleID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error)
	// FindRepliesPreview 为每个父评论取最早的 perParent 条回复
	FindRepliesPreview(ctx context.Context, parentIDs []string, perParent int) (map[string][]*domain.Comment, error)
	// FindReplies 某条评论的回复，按 created_at ASC, id ASC
	FindReplies(ctx context.Context, parentID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error)
	Save(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, comment *domain.Comment) error
}

type commentRepo struct {
	db *database.DB
}

// NewCommentRepository 创建评论仓储实例
func NewCommentRepository(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentColumns = `c.id, c.article_id, c.parent_id, c.author_id, c.content, c.is_deleted, c.created_at, c.updated_at,
	u.id, u.email, u.display_name, u.avatar_url`

const commentFrom = `FROM comments c JOIN users u ON u.id = c.author_id`

func scanComment(s rowScanner) (*domain.Comment, error) {
	var (
		d        domain.CommentData
		parentID sql.NullString
		author   domain.CommentAuthor
		avatar   sql.NullString
	)
	err := s.Scan(
		&d.ID,
		&d.ArticleID,
		&parentID,
		&d.AuthorID,
		&d.Content,
		&d.IsDeleted,
		&d.CreatedAt,
		&d.UpdatedAt,
		&author.ID,
		&author.Email,
		&author.DisplayName,
		&avatar,
	)
	if err != nil {
		return nil, err
	}
	d.ParentID = nullStringPtr(parentID)
	author.AvatarURL = nullStringPtr(avatar)
	d.Author = &author

	comment, err := d.ToComment()
	if err != nil {
		return nil, fmt.Errorf("reconstitute comment %s: %w", d.ID, err)
	}
	return comment, nil
}

func collectComments(rows *sql.Rows) ([]*domain.Comment, error) {
	defer rows.Close()

	comments := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// FindByID 根据ID查询未删除的评论
func (r *commentRepo) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id = ? AND c.is_deleted = FALSE`, commentColumns, commentFrom)

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

func (r *commentRepo) FindTopLevelByArticle(ctx context.Context, articleID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error) {
	query := fmt.Sprintf(`SELECT %s %s
		WHERE c.article_id = ? AND c.parent_id IS NULL AND c.is_deleted = FALSE`, commentColumns, commentFrom)
	args := []interface{}{articleID}

	if after != nil {
		query += ` AND (c.created_at < ? OR (c.created_at = ? AND c.id < ?))`
		args = append(args, after.CreatedAt, after.CreatedAt, after.ID)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return collectComments(rows)
}

func (r *commentRepo) FindRepliesPreview(ctx context.Context, parentIDs []string, perParent int) (map[string][]*domain.Comment, error) {
	out := make(map[string][]*domain.Comment, len(parentIDs))
	if len(parentIDs) == 0 || perParent <= 0 {
		return out, nil
	}

	// MySQL 8 窗口函数：每个父评论内按时间升序编号后截取前 perParent 条
	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT c.*, ROW_NUMBER() OVER (PARTITION BY c.parent_id ORDER BY c.created_at ASC, c.id ASC) AS rn
			FROM comments c
			WHERE c.parent_id IN (%s) AND c.is_deleted = FALSE
		) c
		JOIN users u ON u.id = c.author_id
		WHERE c.rn <= ?
		ORDER BY c.parent_id, c.created_at ASC, c.id ASC
	`, commentColumns, placeholders(len(parentIDs)))

	args := append(stringArgs(parentIDs), perParent)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reply previews: %w", err)
	}
	replies, err := collectComments(rows)
	if err != nil {
		return nil, err
	}

	for _, reply := range replies {
		parent := reply.ParentID()
		if parent == nil {
			continue
		}
		out[parent.Value()] = append(out[parent.Value()], reply)
	}
	return out, nil
}

func (r *commentRepo) FindReplies(ctx context.Context, parentID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.parent_id = ? AND c.is_deleted = FALSE`, commentColumns, commentFrom)
	args := []interface{}{parentID}

	if after != nil {
		query += ` AND (c.created_at > ? OR (c.created_at = ? AND c.id > ?))`
		args = append(args, after.CreatedAt, after.CreatedAt, after.ID)
	}
	query += ` ORDER BY c.created_at ASC, c.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	return collectComments(rows)
}

// Save 插入或更新评论，文章、父评论与作者在创建后不可变
func (r *commentRepo) Save(ctx context.Context, comment *domain.Comment) error {
	d := comment.Snapshot()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, article_id, parent_id, author_id, content, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			content = VALUES(content),
			is_deleted = VALUES(is_deleted),
			updated_at = VALUES(updated_at)
	`,
		d.ID,
		d.ArticleID,
		d.ParentID,
		d.AuthorID,
		d.Content,
		d.IsDeleted,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	return nil
}

// Delete 软删除评论，回复保留
func (r *commentRepo) Delete(ctx context.Context, comment *domain.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE comments SET is_deleted = TRUE, updated_at = ? WHERE id = ?`,
		comment.UpdatedAt(), comment.ID().Value(),
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
