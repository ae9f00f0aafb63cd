package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
)

func createTestJWTService(now func() time.Time) *jwtService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-key"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute
	cfg.JWT.Issuer = "test-service"

	s := NewJWTService(cfg, zap.NewNop()).(*jwtService)
	if now != nil {
		s.now = now
	}
	return s
}

func TestJWTService_SignAndVerify(t *testing.T) {
	s := createTestJWTService(nil)
	user := newTestUser(t, "reader@example.com", "hash")

	token, err := s.Sign(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value())

	payload, err := s.Verify(token.Value())
	require.NoError(t, err)
	assert.Equal(t, user.ID().Value(), payload.Sub)
	assert.Equal(t, "reader@example.com", payload.Email)
	assert.Equal(t, user.DisplayName().Value(), payload.DisplayName)
	assert.Equal(t, 15*time.Minute, payload.ExpiresAt.Sub(payload.IssuedAt))
}

func TestJWTService_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := createTestJWTService(func() time.Time { return issuedAt })
	token, err := signer.Sign(newTestUser(t, "reader@example.com", "hash"))
	require.NoError(t, err)

	verifier := createTestJWTService(func() time.Time { return issuedAt.Add(16 * time.Minute) })
	_, err = verifier.Verify(token.Value())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTService_RejectsTamperedTokens(t *testing.T) {
	s := createTestJWTService(nil)
	user := newTestUser(t, "reader@example.com", "hash")

	otherIssuer := createTestJWTService(nil)
	otherIssuer.issuer = "someone-else"
	foreign, err := otherIssuer.Sign(user)
	require.NoError(t, err)

	otherSecret := createTestJWTService(nil)
	otherSecret.secret = []byte("another-secret")
	forged, err := otherSecret.Sign(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": user.ID().Value(),
		"iss": "test-service",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong issuer", foreign.Value()},
		{"wrong secret", forged.Value()},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
