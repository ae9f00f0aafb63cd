package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
)

// Claims 定义JWT载荷结构
// 继承jwt.RegisteredClaims以获得标准声明字段
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// JWTService 定义JWT服务接口
type JWTService interface {
	// Sign 为用户签发访问令牌
	Sign(user *domain.User) (domain.AccessToken, error)
	// Verify 校验签名、签发者和有效期，返回解码后的载荷
	Verify(tokenString string) (*domain.TokenPayload, error)
}

// jwtService 是JWTService接口的实现
type jwtService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	logger *zap.Logger
	now    func() time.Time
}

// NewJWTService 创建JWT服务实例
func NewJWTService(cfg *config.Config, logger *zap.Logger) JWTService {
	return &jwtService{
		secret: []byte(cfg.JWT.Secret),
		ttl:    cfg.JWT.AccessTokenTTL,
		issuer: cfg.JWT.Issuer,
		logger: logger,
		now:    time.Now,
	}
}

func (s *jwtService) Sign(user *domain.User) (domain.AccessToken, error) {
	now := s.now()
	claims := &Claims{
		Email:       user.Email().Value(),
		DisplayName: user.DisplayName().Value(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID().Value(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    s.issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return domain.AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return domain.NewAccessToken(signed)
}

func (s *jwtService) Verify(tokenString string) (*domain.TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}

	return &domain.TokenPayload{
		Sub:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		IssuedAt:    claims.IssuedAt.Time.UTC(),
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}
