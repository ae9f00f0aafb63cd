package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ihury/graodireto-tech-blog-api/internal/domain"
	"github.com/Ihury/graodireto-tech-blog-api/internal/repo"
	"github.com/Ihury/graodireto-tech-blog-api/internal/service"
)

const demoContent = `Every article in this blog is stored with a slug derived from its title,
an optional summary and a list of tags. Comments form a two-level thread:
readers reply to top-level comments, never to replies. This post exists so
that a fresh environment has something to render.`

type seedOptions struct {
	Email       string
	Password    string
	DisplayName string
	Tags        []string
	Articles    int
}

type seedResult struct {
	UserID  string
	Tags    int
	Created int
	Skipped int
}

type seeder struct {
	auth     service.AuthService
	articles service.ArticleService
	tags     repo.TagRepository
	logger   *zap.Logger
}

func (s *seeder) run(ctx context.Context, opts seedOptions) (*seedResult, error) {
	userID, err := s.ensureAuthor(ctx, opts)
	if err != nil {
		return nil, err
	}
	res := &seedResult{UserID: userID}

	var tagSlugs []string
	for _, raw := range opts.Tags {
		name, err := domain.NewTagName(raw)
		if err != nil {
			s.logger.Warn("skipping invalid tag", zap.String("tag", raw), zap.Error(err))
			continue
		}
		tag, err := domain.NewTag(domain.TagParams{Name: name})
		if err != nil {
			s.logger.Warn("skipping invalid tag", zap.String("tag", raw), zap.Error(err))
			continue
		}
		if err := s.tags.Save(ctx, tag); err != nil {
			return nil, fmt.Errorf("save tag %q: %w", raw, err)
		}
		tagSlugs = append(tagSlugs, tag.Slug().Value())
		res.Tags++
	}

	for i := 1; i <= opts.Articles; i++ {
		req := domain.CreateArticleRequest{
			Title:   fmt.Sprintf("Welcome to the tech blog, part %d", i),
			Content: strings.Repeat(demoContent+"\n\n", i),
			Tags:    tagSlugs,
		}
		article, err := s.articles.Create(ctx, userID, req)
		if errors.Is(err, service.ErrSlugTaken) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create article %d: %w", i, err)
		}
		s.logger.Info("article seeded", zap.String("slug", article.Slug().Value()))
		res.Created++
	}
	return res, nil
}

// ensureAuthor 注册作者，已存在时用同一组凭据登录取回ID
func (s *seeder) ensureAuthor(ctx context.Context, opts seedOptions) (string, error) {
	user, err := s.auth.Register(ctx, domain.RegisterRequest{
		Email:       opts.Email,
		Password:    opts.Password,
		DisplayName: opts.DisplayName,
	})
	if err == nil {
		return user.ID().Value(), nil
	}
	if !errors.Is(err, service.ErrUserExists) {
		return "", fmt.Errorf("register author: %w", err)
	}

	login, err := s.auth.Login(ctx, domain.LoginRequest{Email: opts.Email, Password: opts.Password})
	if err != nil {
		return "", fmt.Errorf("author %s exists but login failed: %w", opts.Email, err)
	}
	return login.User.ID, nil
}
