package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       interface{ Validate() error }
		wantField string
	}{
		{name: "valid register", req: RegisterRequest{Email: "a@b.com", Password: "secret1", DisplayName: "Ana"}},
		{name: "register multibyte password within 72 bytes", req: RegisterRequest{Email: "a@b.com", Password: strings.Repeat("密", 24), DisplayName: "Ana"}},
		{name: "register multibyte password over 72 bytes", req: RegisterRequest{Email: "a@b.com", Password: strings.Repeat("密", 30), DisplayName: "Ana"}, wantField: "password"},
		{name: "register ascii password over 72 bytes", req: RegisterRequest{Email: "a@b.com", Password: strings.Repeat("a", 73), DisplayName: "Ana"}, wantField: "password"},
		{name: "register short password", req: RegisterRequest{Email: "a@b.com", Password: "123", DisplayName: "Ana"}, wantField: "password"},
		{name: "register reports first field by name", req: RegisterRequest{}, wantField: "display_name"},
		{name: "login missing password", req: LoginRequest{Email: "a@b.com"}, wantField: "password"},
		{name: "article without content", req: CreateArticleRequest{Title: "Hello"}, wantField: "content"},
		{name: "article bad cover", req: CreateArticleRequest{Title: "Hello", Content: "x", CoverImageURL: strPtr("not a url")}, wantField: "cover_image_url"},
		{name: "article empty cover means none", req: CreateArticleRequest{Title: "Hello", Content: "x", CoverImageURL: strPtr("")}},
		{name: "article too many tags", req: CreateArticleRequest{Title: "Hello", Content: "x", Tags: make([]string, MaxTagsPerArticle+1)}, wantField: "tags"},
		{name: "update clears cover", req: UpdateArticleRequest{CoverImageURL: strPtr("")}},
		{name: "comment bad parent", req: CreateCommentRequest{Content: "hi", ParentID: strPtr("nope")}, wantField: "parent_id"},
		{name: "comment uppercase parent", req: CreateCommentRequest{Content: "hi", ParentID: strPtr("3F2504E0-4F89-41D3-9A0C-0305E82C3301")}},
		{name: "valid comment", req: CreateCommentRequest{Content: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func strPtr(s string) *string { return &s }
