package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freezeClock 固定领域时钟，测试结束后恢复
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = orig })
}

func mustTitle(t *testing.T, s string) ArticleTitle {
	t.Helper()
	v, err := NewArticleTitle(s)
	require.NoError(t, err)
	return v
}

func mustContent(t *testing.T, s string) ArticleContent {
	t.Helper()
	v, err := NewArticleContent(s)
	require.NoError(t, err)
	return v
}

func newTestArticle(t *testing.T) *Article {
	t.Helper()
	a, err := NewArticle(ArticleParams{
		AuthorID: GenerateUUID(),
		Title:    mustTitle(t, "Grão Direto Engineering"),
		Content:  mustContent(t, strings.Repeat("conteúdo ", 60)),
		Tags:     []ArticleTag{{Slug: "go", Name: "Go"}},
	})
	require.NoError(t, err)
	return a
}

func TestNewArticle_DerivesSlugAndSummary(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	freezeClock(t, at)

	raw := strings.Repeat("conteúdo ", 60)
	a := newTestArticle(t)

	assert.Equal(t, "grao-direto-engineering", a.Slug().Value())
	assert.True(t, a.Summary().Present())
	assert.LessOrEqual(t, len([]rune(a.Summary().Value())), SummaryMaxLength)
	assert.True(t, strings.HasPrefix(raw, a.Summary().Value()))
	assert.False(t, a.IsDeleted())
	assert.Equal(t, at, a.CreatedAt())
	assert.Equal(t, at, a.UpdatedAt())

	_, err := NewUUID(a.ID().Value())
	assert.NoError(t, err)
}

func TestNewArticle_ShortContentSummaryIsWholeContent(t *testing.T) {
	content := mustContent(t, strings.Repeat("a", 50))
	a, err := NewArticle(ArticleParams{
		AuthorID: GenerateUUID(),
		Title:    mustTitle(t, "Short one"),
		Content:  content,
	})
	require.NoError(t, err)
	assert.Equal(t, content.Value(), a.Summary().Value())
}

func TestNewArticle_ExplicitValuesWin(t *testing.T) {
	id := GenerateUUID()
	slug, err := NewArticleSlug("custom-slug")
	require.NoError(t, err)
	raw := "hand written"
	summary, err := NewArticleSummary(&raw)
	require.NoError(t, err)

	a, err := NewArticle(ArticleParams{
		ID:       &id,
		AuthorID: GenerateUUID(),
		Title:    mustTitle(t, "Some title"),
		Content:  mustContent(t, strings.Repeat("b", 80)),
		Slug:     &slug,
		Summary:  &summary,
	})
	require.NoError(t, err)
	assert.True(t, a.ID().Equals(id))
	assert.Equal(t, "custom-slug", a.Slug().Value())
	assert.Equal(t, "hand written", a.Summary().Value())
}

func TestNewArticle_UnsluggableTitle(t *testing.T) {
	_, err := NewArticle(ArticleParams{
		AuthorID: GenerateUUID(),
		Title:    mustTitle(t, "!!!!!!"),
		Content:  mustContent(t, strings.Repeat("c", 50)),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestArticle_MutatorsDoNotCascade(t *testing.T) {
	freezeClock(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	a := newTestArticle(t)
	slug := a.Slug()
	summary := a.Summary()

	prev := a.UpdatedAt()
	a.UpdateTitle(mustTitle(t, "A completely new title"))
	assert.True(t, a.Slug().Equals(slug))
	assert.True(t, a.UpdatedAt().After(prev))

	prev = a.UpdatedAt()
	a.UpdateContent(mustContent(t, strings.Repeat("z", 400)))
	assert.True(t, a.Summary().Equals(summary))
	assert.True(t, a.UpdatedAt().After(prev))
}

func TestArticle_EveryMutatorBumpsUpdatedAt(t *testing.T) {
	freezeClock(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	a := newTestArticle(t)
	slug, _ := NewArticleSlug("new-slug")
	cover := "https://cdn.example.com/cover.png"

	mutations := []func(){
		func() { a.UpdateSummary(SummaryFromContent(a.Content())) },
		func() { a.UpdateCoverImage(&cover) },
		func() { a.UpdateCoverImage(nil) },
		func() { a.UpdateSlug(slug) },
		func() { a.UpdateTags(nil) },
		func() { a.SoftDelete() },
		func() { a.Restore() },
	}
	for i, m := range mutations {
		prev := a.UpdatedAt()
		m()
		assert.True(t, a.UpdatedAt().After(prev), "mutation %d", i)
	}
	assert.Nil(t, a.CoverImageURL())
	assert.Empty(t, a.Tags())
}

func TestArticle_SoftDeleteAndRestore(t *testing.T) {
	a := newTestArticle(t)
	prev := a.UpdatedAt()

	a.SoftDelete()
	assert.True(t, a.IsDeleted())
	assert.True(t, a.UpdatedAt().After(prev))

	a.Restore()
	assert.False(t, a.IsDeleted())
}

func TestArticle_TagsAreCopied(t *testing.T) {
	tags := []ArticleTag{{Slug: "go", Name: "Go"}}
	a, err := NewArticle(ArticleParams{
		AuthorID: GenerateUUID(),
		Title:    mustTitle(t, "Copy semantics"),
		Content:  mustContent(t, strings.Repeat("d", 60)),
		Tags:     tags,
	})
	require.NoError(t, err)

	tags[0].Name = "mutated"
	got := a.Tags()
	got[0].Slug = "mutated"
	assert.Equal(t, []ArticleTag{{Slug: "go", Name: "Go"}}, a.Tags())
}

func TestArticle_SnapshotRoundTrip(t *testing.T) {
	a := newTestArticle(t)
	cover := "https://cdn.example.com/a.png"
	a.UpdateCoverImage(&cover)

	data := a.Snapshot()
	back, err := data.ToArticle()
	require.NoError(t, err)
	assert.Equal(t, data, back.Snapshot())
	assert.True(t, back.IsAuthoredBy(a.AuthorID()))
	assert.False(t, back.IsAuthoredBy(GenerateUUID()))
}

func TestReconstituteArticle_NoDerivation(t *testing.T) {
	id := GenerateUUID()
	slug, _ := NewArticleSlug("kept-as-is")
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	a := ReconstituteArticle(ArticleProps{
		ID:        id,
		AuthorID:  GenerateUUID(),
		Title:     mustTitle(t, "Different title"),
		Slug:      slug,
		Content:   mustContent(t, strings.Repeat("e", 60)),
		Deleted:   true,
		CreatedAt: created,
		UpdatedAt: created,
	})
	assert.Equal(t, "kept-as-is", a.Slug().Value())
	assert.False(t, a.Summary().Present())
	assert.True(t, a.IsDeleted())
	assert.Equal(t, created, a.UpdatedAt())
}
