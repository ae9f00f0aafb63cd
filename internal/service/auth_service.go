package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/mq"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
)

// AuthService 定义认证服务接口
type AuthService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	// ValidateToken 校验令牌并返回仍然有效的激活用户
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// authService 是 AuthService 接口的实现
type authService struct {
	userRepo  repo.UserRepository
	jwt       JWTService
	hasher    PasswordHasher
	publisher mq.EventPublisher
	logger    *zap.Logger
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo repo.UserRepository, jwt JWTService, hasher PasswordHasher, publisher mq.EventPublisher, logger *zap.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwt:       jwt,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
	}
}

// Register 用户注册
// 业务规则：
// 1. 邮箱不能重复（忽略大小写）
// 2. 密码使用 bcrypt 哈希后保存
// 3. 新用户默认处于激活状态
func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name, err := domain.NewDisplayName(req.DisplayName)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email.Value())
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}
	hash, err := domain.NewPasswordHash(hashed)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(domain.UserParams{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
	})
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered successfully",
		zap.String("user_id", user.ID().Value()))

	publish(ctx, s.publisher, s.logger, mq.NewEvent(mq.EventUserRegistered, user.ID().Value(), map[string]string{
		"email":        user.Email().Value(),
		"display_name": user.DisplayName().Value(),
	}))

	return user, nil
}

// Login 用户登录
// 用户不存在、已停用或密码错误时统一返回 ErrInvalidCredentials
func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := domain.ValidateRequest(req); err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(req.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email.Value())
	if err != nil {
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Compare(user.PasswordHash().Value(), req.Password)
	if err != nil {
		s.logger.Error("failed to compare password",
			zap.String("user_id", user.ID().Value()),
			zap.Error(err))
		return nil, err
	}
	if !ok || !user.IsActive() {
		return nil, ErrInvalidCredentials
	}

	user.UpdateLastLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("failed to update last login", zap.Error(err))
		return nil, fmt.Errorf("update last login: %w", err)
	}

	token, err := s.jwt.Sign(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in successfully",
		zap.String("user_id", user.ID().Value()))

	return &domain.LoginResponse{
		AccessToken: token.Value(),
		User:        user.Snapshot(),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if _, err := domain.NewAccessToken(token); err != nil {
		return nil, ErrInvalidToken
	}

	payload, err := s.jwt.Verify(token)
	if err != nil {
		return nil, err
	}
	if payload.IsExpired(domain.Now()) {
		return nil, ErrTokenExpired
	}

	if _, err := domain.NewUUID(payload.Sub); err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, payload.Sub)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive() {
		return nil, ErrUserInactive
	}
	if user.ID().Value() != payload.Sub {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user by id", zap.String("id", userID), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// publish 发布事件，失败只记录日志
func publish(ctx context.Context, p mq.EventPublisher, logger *zap.Logger, event mq.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err))
	}
}
