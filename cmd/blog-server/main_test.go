package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
	"github.com/Ihury/graodireto-tech-blog-api/internal/limiter"
)

func TestInitLimiter(t *testing.T) {
	cfg := &config.Config{}
	cfg.RateLimit.Rate = 5
	cfg.RateLimit.Window = time.Minute

	lim, err := initLimiter(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, lim, "disabled rate limit yields no limiter")

	cfg.RateLimit.Enabled = true
	lim, err = initLimiter(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &limiter.MemoryLimiter{}, lim)

	res, err := lim.AllowN(context.Background(), "k", 5)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	cfg.RateLimit.Window = 0
	_, err = initLimiter(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}
