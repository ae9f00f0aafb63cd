package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/api"
	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/limiter"
	"github.com/Ihury/graodireto-tech-blog-api/internal/pagination"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

const validToken = "valid-token"

type stubAuthService struct {
	user *domain.User
}

func (s *stubAuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	return s.user, nil
}

func (s *stubAuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	return &domain.LoginResponse{AccessToken: validToken, User: s.user.Snapshot()}, nil
}

func (s *stubAuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if token != validToken {
		return nil, service.ErrInvalidToken
	}
	return s.user, nil
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.user, nil
}

// stubArticleService 记录收到的路径参数
type stubArticleService struct {
	lastID   string
	lastSlug string
}

func (s *stubArticleService) Create(ctx context.Context, authorID string, req domain.CreateArticleRequest) (*domain.Article, error) {
	return nil, domain.NewValidationError("title", "title is required")
}

func (s *stubArticleService) Update(ctx context.Context, authorID, articleID string, req domain.UpdateArticleRequest) (*domain.Article, error) {
	s.lastID = articleID
	return nil, service.ErrForbidden
}

func (s *stubArticleService) Delete(ctx context.Context, authorID, articleID string) error {
	s.lastID = articleID
	return nil
}

func (s *stubArticleService) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	s.lastID = id
	return nil, service.ErrArticleNotFound
}

func (s *stubArticleService) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	s.lastSlug = slug
	return nil, service.ErrArticleNotFound
}

func (s *stubArticleService) List(ctx context.Context, req domain.ListArticlesRequest) (pagination.OffsetPage[*domain.Article], error) {
	return pagination.NewOffsetPage([]*domain.Article{}, pagination.NormalizeOffset(req.Page, req.Size), 0), nil
}

type stubCommentService struct {
	lastID string
}

func (s *stubCommentService) Create(ctx context.Context, authorID, articleID string, req domain.CreateCommentRequest) (*domain.Comment, error) {
	s.lastID = articleID
	return nil, service.ErrArticleNotFound
}

func (s *stubCommentService) ListByArticle(ctx context.Context, articleID string, size int, after string) (pagination.CursorPage[service.CommentWithReplies], error) {
	s.lastID = articleID
	return pagination.CursorPage[service.CommentWithReplies]{}, nil
}

func (s *stubCommentService) ListReplies(ctx context.Context, commentID string, size int, after string) (pagination.CursorPage[*domain.Comment], error) {
	s.lastID = commentID
	return pagination.CursorPage[*domain.Comment]{}, nil
}

func (s *stubCommentService) Delete(ctx context.Context, authorID, commentID string) error {
	s.lastID = commentID
	return service.ErrCommentNotFound
}

type stubTagService struct{}

func (stubTagService) List(ctx context.Context, page, size int) (pagination.OffsetPage[*domain.Tag], error) {
	return pagination.NewOffsetPage([]*domain.Tag{}, pagination.NormalizeOffset(page, size), 0), nil
}

type testServer struct {
	handler  http.Handler
	articles *stubArticleService
	comments *stubCommentService
}

func newTestServer(t *testing.T, lim limiter.Limiter) *testServer {
	t.Helper()
	email, _ := domain.NewEmail("router@example.com")
	hash, _ := domain.NewPasswordHash("hash")
	name, _ := domain.NewDisplayName("Router")
	user := domain.NewUser(domain.UserParams{Email: email, PasswordHash: hash, DisplayName: name})

	lg := zap.NewNop()
	authSvc := &stubAuthService{user: user}
	articles := &stubArticleService{}
	comments := &stubCommentService{}

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.RequestTimeout = 5 * time.Second
	cfg.CORS.AllowedOrigins = []string{"*"}

	h := New().Setup(cfg, &Dependencies{
		AuthHandler:    api.NewAuthHandler(authSvc, lg),
		ArticleHandler: api.NewArticleHandler(articles, lg),
		CommentHandler: api.NewCommentHandler(comments, lg),
		TagHandler:     api.NewTagHandler(stubTagService{}, lg),
		HealthHandler:  api.NewHealthHandler("blog-api", "test", nil, lg),
		TokenValidator: authSvc,
		Limiter:        lim,
	}, lg)
	return &testServer{handler: h, articles: articles, comments: comments}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "192.0.2.10:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouter_PublicRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = s.do(http.MethodGet, "/api/v1/articles?page=1", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/v1/tags", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/v1/articles", "expired-or-garbage", "")
	assert.Equal(t, http.StatusOK, rr.Code, "bad token on a public read is treated as anonymous")

	rr = s.do(http.MethodGet, "/api/v1/articles", validToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":40400`)
}

func TestRouter_PathParams(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(http.MethodGet, "/api/v1/articles/abc-123", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "abc-123", s.articles.lastID)

	rr = s.do(http.MethodGet, "/api/v1/articles/slug/my-post", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "my-post", s.articles.lastSlug)

	rr = s.do(http.MethodGet, "/api/v1/articles/art-1/comments", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "art-1", s.comments.lastID)

	rr = s.do(http.MethodGet, "/api/v1/comments/cmt-9/replies", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cmt-9", s.comments.lastID)
}

func TestRouter_AuthRequired(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/auth/me", ""},
		{http.MethodPost, "/api/v1/articles", `{}`},
		{http.MethodPatch, "/api/v1/articles/a1", `{}`},
		{http.MethodDelete, "/api/v1/articles/a1", ""},
		{http.MethodPost, "/api/v1/articles/a1/comments", `{}`},
		{http.MethodDelete, "/api/v1/comments/c1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := s.do(tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			rr = s.do(tt.method, tt.path, "wrong", tt.body)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			rr = s.do(tt.method, tt.path, validToken, tt.body)
			assert.NotEqual(t, http.StatusUnauthorized, rr.Code)
		})
	}

	rr := s.do(http.MethodPatch, "/api/v1/articles/a1", validToken, `{"title":"Changed title"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "a1", s.articles.lastID)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	lim, err := limiter.NewMemoryLimiter(&limiter.Config{Rate: 2, Window: time.Minute})
	require.NoError(t, err)
	s := newTestServer(t, lim)

	body := `{"email":"router@example.com","password":"secret123"}`
	for i := 0; i < 2; i++ {
		rr := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(limiter.HeaderRetryAfter))

	rr = s.do(http.MethodPost, "/api/v1/auth/register", "", `{"email":"x@example.com","password":"secret123","display_name":"X"}`)
	assert.Equal(t, http.StatusCreated, rr.Code, "register is not rate limited")
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
