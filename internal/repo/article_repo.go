package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// ArticleFilter 文章列表过滤条件
type ArticleFilter struct {
	// SlugSearch 已 slugify 的搜索词，按子串匹配文章slug
	SlugSearch string
	// TagSlugs 命中任意一个标签即可
	TagSlugs []string
}

// ArticleRepository 定义文章数据访问接口
type ArticleRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Article, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Article, error)
	// SlugExists 包含已软删除的文章，因为slug唯一索引同样覆盖它们
	SlugExists(ctx context.Context, slug string) (bool, error)
	FindMany(ctx context.Context, filter ArticleFilter, limit, offset int) ([]*domain.Article, int64, error)
	// Save 插入或更新文章，并用当前标签替换关联（只关联已存在且激活的标签）
	Save(ctx context.Context, article *domain.Article) error
	// Delete 软删除，updated_at 取实体上已推进的时间
	Delete(ctx context.Context, article *domain.Article) error
}

type articleRepo struct {
	db *database.DB
}

// NewArticleRepository 创建文章仓储实例
func NewArticleRepository(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

const articleColumns = `a.id, a.author_id, a.title, a.slug, a.summary, a.content, a.cover_image_url, a.is_deleted, a.created_at, a.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(s rowScanner) (domain.ArticleData, error) {
	var (
		d       domain.ArticleData
		summary sql.NullString
		cover   sql.NullString
	)
	err := s.Scan(
		&d.ID,
		&d.AuthorID,
		&d.Title,
		&d.Slug,
		&summary,
		&d.Content,
		&cover,
		&d.IsDeleted,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}
	d.Summary = nullStringPtr(summary)
	d.CoverImageURL = nullStringPtr(cover)
	return d, nil
}

// FindByID 根据ID查询未删除的文章
func (r *articleRepo) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	return r.findOne(ctx, "a.id = ?", id)
}

// FindBySlug 根据slug查询未删除的文章
func (r *articleRepo) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return r.findOne(ctx, "a.slug = ?", slug)
}

func (r *articleRepo) findOne(ctx context.Context, cond string, arg interface{}) (*domain.Article, error) {
	query := fmt.Sprintf(`SELECT %s FROM articles a WHERE %s AND a.is_deleted = FALSE`, articleColumns, cond)

	data, err := scanArticle(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get article: %w", err)
	}

	tags, err := r.loadTags(ctx, r.db, []string{data.ID})
	if err != nil {
		return nil, err
	}
	data.Tags = tags[data.ID]

	article, err := data.ToArticle()
	if err != nil {
		return nil, fmt.Errorf("reconstitute article %s: %w", data.ID, err)
	}
	return article, nil
}

func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE slug = ?`, slug).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return n > 0, nil
}

// FindMany 按 created_at DESC, id DESC 分页查询未删除的文章
func (r *articleRepo) FindMany(ctx context.Context, filter ArticleFilter, limit, offset int) ([]*domain.Article, int64, error) {
	where, args := buildArticleWhere(filter)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM articles a %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	if total == 0 {
		return []*domain.Article{}, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM articles a
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ? OFFSET ?
	`, articleColumns, where)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var list []domain.ArticleData
	for rows.Next() {
		d, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", err)
	}

	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	tags, err := r.loadTags(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}

	articles := make([]*domain.Article, 0, len(list))
	for _, d := range list {
		d.Tags = tags[d.ID]
		a, err := d.ToArticle()
		if err != nil {
			return nil, 0, fmt.Errorf("reconstitute article %s: %w", d.ID, err)
		}
		articles = append(articles, a)
	}
	return articles, total, nil
}

func buildArticleWhere(filter ArticleFilter) (string, []interface{}) {
	conditions := []string{"a.is_deleted = FALSE"}
	var args []interface{}

	if filter.SlugSearch != "" {
		conditions = append(conditions, "a.slug LIKE ?")
		args = append(args, "%"+likeEscape(filter.SlugSearch)+"%")
	}

	if len(filter.TagSlugs) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"a.id IN (SELECT atg.article_id FROM article_tags atg WHERE atg.tag_slug IN (%s))",
			placeholders(len(filter.TagSlugs)),
		))
		args = append(args, stringArgs(filter.TagSlugs)...)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// loadTags 批量加载文章标签，按关联时的顺序返回
func (r *articleRepo) loadTags(ctx context.Context, q querier, articleIDs []string) (map[string][]domain.ArticleTag, error) {
	out := make(map[string][]domain.ArticleTag, len(articleIDs))
	if len(articleIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT atg.article_id, t.slug, t.name
		FROM article_tags atg
		JOIN tags t ON t.slug = atg.tag_slug
		WHERE atg.article_id IN (%s)
		ORDER BY atg.article_id, atg.position
	`, placeholders(len(articleIDs)))

	rows, err := q.QueryContext(ctx, query, stringArgs(articleIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query article tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID string
		var tag domain.ArticleTag
		if err := rows.Scan(&articleID, &tag.Slug, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan article tag: %w", err)
		}
		out[articleID] = append(out[articleID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article tags: %w", err)
	}
	return out, nil
}

// Save 在一个事务中写入文章并替换标签关联
func (r *articleRepo) Save(ctx context.Context, article *domain.Article) error {
	d := article.Snapshot()

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO articles (id, author_id, title, slug, summary, content, cover_image_url, is_deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				title = VALUES(title),
				slug = VALUES(slug),
				summary = VALUES(summary),
				content = VALUES(content),
				cover_image_url = VALUES(cover_image_url),
				is_deleted = VALUES(is_deleted),
				updated_at = VALUES(updated_at)
		`,
			d.ID,
			d.AuthorID,
			d.Title,
			d.Slug,
			d.Summary,
			d.Content,
			d.CoverImageURL,
			d.IsDeleted,
			d.CreatedAt,
			d.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("save article: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, d.ID); err != nil {
			return fmt.Errorf("clear article tags: %w", err)
		}

		for i, tag := range d.Tags {
			// 不存在或已停用的标签不会被关联
			_, err := tx.ExecContext(ctx, `
				INSERT IGNORE INTO article_tags (article_id, tag_slug, position)
				SELECT ?, slug, ? FROM tags WHERE slug = ? AND is_active = TRUE
			`, d.ID, i, tag.Slug)
			if err != nil {
				return fmt.Errorf("link article tag %s: %w", tag.Slug, err)
			}
		}
		return nil
	})
}

// Delete 软删除文章
func (r *articleRepo) Delete(ctx context.Context, article *domain.Article) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET is_deleted = TRUE, updated_at = ? WHERE id = ?`,
		article.UpdatedAt(), article.ID().Value(),
	)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}
