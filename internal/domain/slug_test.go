package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Grão  Direto — Tech Blog!!!  ", "grao-direto-tech-blog"},
		{"Hello World", "hello-world"},
		{"Ação e Reação", "acao-e-reacao"},
		{"Crème Brûlée", "creme-brulee"},
		{"Go 1.22 released", "go-1-22-released"},
		{"already-a-slug", "already-a-slug"},
		{"--multiple---hyphens--", "multiple-hyphens"},
		{"ＦＵＬＬ ｗｉｄｔｈ", "full-width"},
		{"!!!", ""},
		{"", ""},
		{"日本語", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestSlugify_OutputShapeAndIdempotence(t *testing.T) {
	shape := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	inputs := []string{
		"Título com Acentuação",
		"  spaces\tand\nnewlines  ",
		"MiXeD_CaSe__and__underscores",
		"emoji 🚀 rocket",
		"İstanbul ßtraße",
		"ŞĞÜÖÇ",
		"a",
		"-",
		"123 456",
	}

	for _, in := range inputs {
		once := Slugify(in)
		assert.Regexp(t, shape, once, in)
		assert.Equal(t, once, Slugify(once), in)
	}
}
