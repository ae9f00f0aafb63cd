package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
)

// mockArticleRepository 基于内存的文章仓储，存储快照以模拟持久化
type mockArticleRepository struct {
	articles map[string]domain.ArticleData
	tags     *mockTagRepository
	saveErr  error
}

func newMockArticleRepository(tags *mockTagRepository) *mockArticleRepository {
	return &mockArticleRepository{articles: make(map[string]domain.ArticleData), tags: tags}
}

func (m *mockArticleRepository) load(d domain.ArticleData) *domain.Article {
	a, err := d.ToArticle()
	if err != nil {
		panic(err)
	}
	return a
}

func (m *mockArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	d, ok := m.articles[id]
	if !ok || d.IsDeleted {
		return nil, nil
	}
	return m.load(d), nil
}

func (m *mockArticleRepository) FindBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	for _, d := range m.articles {
		if d.Slug == slug && !d.IsDeleted {
			return m.load(d), nil
		}
	}
	return nil, nil
}

func (m *mockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, d := range m.articles {
		if d.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockArticleRepository) FindMany(ctx context.Context, filter repo.ArticleFilter, limit, offset int) ([]*domain.Article, int64, error) {
	var matched []domain.ArticleData
	for _, d := range m.articles {
		if d.IsDeleted {
			continue
		}
		if filter.SlugSearch != "" && !strings.Contains(d.Slug, filter.SlugSearch) {
			continue
		}
		if len(filter.TagSlugs) > 0 && !hasAnyTag(d.Tags, filter.TagSlugs) {
			continue
		}
		matched = append(matched, d)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*domain.Article{}, total, nil
	}
	end := min(offset+limit, len(matched))
	out := make([]*domain.Article, 0, end-offset)
	for _, d := range matched[offset:end] {
		out = append(out, m.load(d))
	}
	return out, total, nil
}

func hasAnyTag(tags []domain.ArticleTag, slugs []string) bool {
	for _, t := range tags {
		for _, s := range slugs {
			if t.Slug == s {
				return true
			}
		}
	}
	return false
}

// Save 与数据库实现一致：只保留已存在且激活的标签
func (m *mockArticleRepository) Save(ctx context.Context, article *domain.Article) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	d := article.Snapshot()
	linked := make([]domain.ArticleTag, 0, len(d.Tags))
	for _, t := range d.Tags {
		if tag, ok := m.tags.tags[t.Slug]; ok && tag.IsActive {
			linked = append(linked, t)
		}
	}
	d.Tags = linked
	m.articles[d.ID] = d
	return nil
}

func (m *mockArticleRepository) Delete(ctx context.Context, article *domain.Article) error {
	id := article.ID().Value()
	d, ok := m.articles[id]
	if !ok {
		return errors.New("article not found")
	}
	d.IsDeleted = true
	d.UpdatedAt = article.UpdatedAt()
	m.articles[id] = d
	return nil
}

// mockTagRepository 基于内存的标签仓储
type mockTagRepository struct {
	tags map[string]domain.TagData
}

func newMockTagRepository() *mockTagRepository {
	return &mockTagRepository{tags: make(map[string]domain.TagData)}
}

func (m *mockTagRepository) FindMany(ctx context.Context, limit, offset int) ([]*domain.Tag, int64, error) {
	var active []domain.TagData
	for _, d := range m.tags {
		if d.IsActive {
			active = append(active, d)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })

	total := int64(len(active))
	if offset >= len(active) {
		return []*domain.Tag{}, total, nil
	}
	end := min(offset+limit, len(active))
	out := make([]*domain.Tag, 0, end-offset)
	for _, d := range active[offset:end] {
		t, _ := d.ToTag()
		out = append(out, t)
	}
	return out, total, nil
}

func (m *mockTagRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*domain.Tag, error) {
	var out []*domain.Tag
	for _, s := range slugs {
		if d, ok := m.tags[s]; ok {
			t, _ := d.ToTag()
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTagRepository) Save(ctx context.Context, tag *domain.Tag) error {
	d := tag.Snapshot()
	m.tags[d.Slug] = d
	return nil
}

// mockCommentRepository 基于内存的评论仓储
type mockCommentRepository struct {
	comments map[string]domain.CommentData
	users    *mockUserRepository
}

func newMockCommentRepository(users *mockUserRepository) *mockCommentRepository {
	return &mockCommentRepository{comments: make(map[string]domain.CommentData), users: users}
}

func (m *mockCommentRepository) load(d domain.CommentData) *domain.Comment {
	if u, ok := m.users.users[d.AuthorID]; ok {
		d.Author = &domain.CommentAuthor{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
	}
	c, err := d.ToComment()
	if err != nil {
		panic(err)
	}
	return c
}

func (m *mockCommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	d, ok := m.comments[id]
	if !ok || d.IsDeleted {
		return nil, nil
	}
	return m.load(d), nil
}

func (m *mockCommentRepository) filter(keep func(domain.CommentData) bool, desc bool) []domain.CommentData {
	var out []domain.CommentData
	for _, d := range m.comments {
		if !d.IsDeleted && keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].ID < out[j].ID)
		if desc {
			return !less
		}
		return less
	})
	return out
}

func (m *mockCommentRepository) FindTopLevelByArticle(ctx context.Context, articleID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error) {
	rows := m.filter(func(d domain.CommentData) bool {
		if d.ArticleID != articleID || d.ParentID != nil {
			return false
		}
		if after == nil {
			return true
		}
		return d.CreatedAt.Before(after.CreatedAt) || (d.CreatedAt.Equal(after.CreatedAt) && d.ID < after.ID)
	}, true)
	return m.take(rows, limit), nil
}

func (m *mockCommentRepository) FindRepliesPreview(ctx context.Context, parentIDs []string, perParent int) (map[string][]*domain.Comment, error) {
	out := make(map[string][]*domain.Comment)
	for _, pid := range parentIDs {
		rows := m.filter(func(d domain.CommentData) bool {
			return d.ParentID != nil && *d.ParentID == pid
		}, false)
		if taken := m.take(rows, perParent); len(taken) > 0 {
			out[pid] = taken
		}
	}
	return out, nil
}

func (m *mockCommentRepository) FindReplies(ctx context.Context, parentID string, after *pagination.Cursor, limit int) ([]*domain.Comment, error) {
	rows := m.filter(func(d domain.CommentData) bool {
		if d.ParentID == nil || *d.ParentID != parentID {
			return false
		}
		if after == nil {
			return true
		}
		return d.CreatedAt.After(after.CreatedAt) || (d.CreatedAt.Equal(after.CreatedAt) && d.ID > after.ID)
	}, false)
	return m.take(rows, limit), nil
}

func (m *mockCommentRepository) take(rows []domain.CommentData, limit int) []*domain.Comment {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]*domain.Comment, 0, len(rows))
	for _, d := range rows {
		out = append(out, m.load(d))
	}
	return out
}

func (m *mockCommentRepository) Save(ctx context.Context, comment *domain.Comment) error {
	d := comment.Snapshot()
	d.Author = nil
	m.comments[d.ID] = d
	return nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, comment *domain.Comment) error {
	id := comment.ID().Value()
	d, ok := m.comments[id]
	if !ok {
		return errors.New("comment not found")
	}
	d.IsDeleted = true
	d.UpdatedAt = comment.UpdatedAt()
	m.comments[id] = d
	return nil
}

// mockUserRepository 基于内存的用户仓储
type mockUserRepository struct {
	users map[string]domain.UserData
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]domain.UserData)}
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	d, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return d.ToUser()
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, d := range m.users {
		if strings.EqualFold(d.Email, email) {
			return d.ToUser()
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Save(ctx context.Context, user *domain.User) error {
	d := user.Snapshot()
	m.users[d.ID] = d
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	d, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	d.IsActive = false
	m.users[id] = d
	return nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event mq.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// plainHasher 测试用的明文“哈希”，避免 bcrypt 拖慢测试
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) (bool, error) {
	return hash == "plain:"+password, nil
}

func newTestUser(t *testing.T, email, hash string) *domain.User {
	t.Helper()
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	h, err := domain.NewPasswordHash(hash)
	require.NoError(t, err)
	name, err := domain.NewDisplayName("Test Reader")
	require.NoError(t, err)
	return domain.NewUser(domain.UserParams{Email: e, PasswordHash: h, DisplayName: name})
}
