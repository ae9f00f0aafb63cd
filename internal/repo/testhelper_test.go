package repo

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/database"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// testDB 测试数据库连接及其容器
type testDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

// setupTestDB 启动 MySQL 容器并执行迁移，-short 模式下跳过
func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL integration test in short mode")
	}
	ctx := context.Background()

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	container, err := mysql.Run(ctx,
		"mysql:8.0.36",
		mysql.WithDatabase("tech_blog_test"),
		mysql.WithUsername("blog"),
		mysql.WithPassword("blog"),
	)
	if err != nil {
		t.Skipf("cannot start mysql container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "charset=utf8mb4", "parseTime=true", "loc=UTC")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("get connection string: %v", err)
	}

	db, err := database.Open(dsn, zap.NewNop())
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open database: %v", err)
	}

	if err := db.RunMigrations(migrationsPath); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("run migrations: %v", err)
	}

	tdb := &testDB{DB: db, Container: container}
	t.Cleanup(func() { tdb.cleanup(t) })
	return tdb
}

func (tdb *testDB) cleanup(t *testing.T) {
	t.Helper()
	if tdb.DB != nil {
		_ = tdb.DB.Close()
	}
	if tdb.Container != nil {
		if err := tdb.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
}

// truncate 按外键依赖的逆序清空表
func (tdb *testDB) truncate(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	// 会话变量只对当前连接生效
	conn, err := tdb.DB.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	require.NoError(t, err)
	for _, table := range []string{"comments", "article_tags", "articles", "tags", "users"} {
		_, err := conn.ExecContext(ctx, "TRUNCATE TABLE "+table)
		require.NoError(t, err, "truncate %s", table)
	}
	_, err = conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	require.NoError(t, err)
}

// 测试数据构造

func seedUser(t *testing.T, r UserRepository, email string) *domain.User {
	t.Helper()
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	hash, err := domain.NewPasswordHash("$2a$10$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	name, err := domain.NewDisplayName("Test User")
	require.NoError(t, err)

	u := domain.NewUser(domain.UserParams{Email: e, PasswordHash: hash, DisplayName: name})
	require.NoError(t, r.Save(context.Background(), u))
	return u
}

func seedTag(t *testing.T, r TagRepository, name string) *domain.Tag {
	t.Helper()
	n, err := domain.NewTagName(name)
	require.NoError(t, err)
	tag, err := domain.NewTag(domain.TagParams{Name: n})
	require.NoError(t, err)
	require.NoError(t, r.Save(context.Background(), tag))
	return tag
}

func newArticle(t *testing.T, author domain.Uuid, title string, tags ...domain.ArticleTag) *domain.Article {
	t.Helper()
	tt, err := domain.NewArticleTitle(title)
	require.NoError(t, err)
	content, err := domain.NewArticleContent("This is a long enough body for an article used in repository tests.")
	require.NoError(t, err)
	a, err := domain.NewArticle(domain.ArticleParams{
		AuthorID: author,
		Title:    tt,
		Content:  content,
		Tags:     tags,
	})
	require.NoError(t, err)
	return a
}

func newComment(t *testing.T, articleID, authorID domain.Uuid, parentID *domain.Uuid, text string) *domain.Comment {
	t.Helper()
	content, err := domain.NewCommentContent(text)
	require.NoError(t, err)
	return domain.NewComment(domain.CommentParams{
		ArticleID: articleID,
		ParentID:  parentID,
		AuthorID:  authorID,
		Content:   content,
	})
}

// stepClock 每次调用前进 1 秒，保证排序稳定
func stepClock(t *testing.T) {
	t.Helper()
	prev := domain.Now
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	domain.Now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	t.Cleanup(func() { domain.Now = prev })
}
