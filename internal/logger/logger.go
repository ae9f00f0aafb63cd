// Package logger 基于 zap 构建结构化日志器。
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建日志器。
// prod 环境默认 JSON 编码，其他环境默认 console 编码；encoding 非空时覆盖默认值。
// 每条日志都会带上 service 和 version 字段。
func New(env, level, encoding, name, version string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if encoding != "" {
		cfg.Encoding = encoding
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lg, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return lg.With(
		zap.String("service", name),
		zap.String("version", version),
	), nil
}
