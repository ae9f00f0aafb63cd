package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComment_IsReply(t *testing.T) {
	articleID := GenerateUUID()
	content, err := NewCommentContent("first!")
	require.NoError(t, err)

	top := NewComment(CommentParams{ArticleID: articleID, AuthorID: GenerateUUID(), Content: content})
	assert.False(t, top.IsReply())
	assert.Nil(t, top.ParentID())

	parentID := top.ID()
	reply := NewComment(CommentParams{ArticleID: articleID, ParentID: &parentID, AuthorID: GenerateUUID(), Content: content})
	assert.True(t, reply.IsReply())
	assert.True(t, reply.ParentID().Equals(top.ID()))
}

func TestComment_SoftDelete(t *testing.T) {
	freezeClock(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC))
	content, _ := NewCommentContent("bye")
	c := NewComment(CommentParams{ArticleID: GenerateUUID(), AuthorID: GenerateUUID(), Content: content})

	prev := c.UpdatedAt()
	c.SoftDelete()
	assert.True(t, c.IsDeleted())
	assert.True(t, c.UpdatedAt().After(prev))
	c.Restore()
	assert.False(t, c.IsDeleted())
}

func TestComment_SnapshotRoundTrip(t *testing.T) {
	content, _ := NewCommentContent("reply text")
	parent := GenerateUUID()
	c := NewComment(CommentParams{ArticleID: GenerateUUID(), ParentID: &parent, AuthorID: GenerateUUID(), Content: content})

	back, err := c.Snapshot().ToComment()
	require.NoError(t, err)
	assert.Equal(t, c.Snapshot(), back.Snapshot())
	assert.True(t, back.IsReply())
}

func newTestUser(t *testing.T) *User {
	t.Helper()
	email, err := NewEmail("writer@example.com")
	require.NoError(t, err)
	hash, err := NewPasswordHash("$2a$12$hash")
	require.NoError(t, err)
	name, err := NewDisplayName("Writer")
	require.NoError(t, err)
	return NewUser(UserParams{Email: email, PasswordHash: hash, DisplayName: name})
}

func TestUser_Lifecycle(t *testing.T) {
	freezeClock(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	u := newTestUser(t)
	assert.True(t, u.IsActive())
	assert.Nil(t, u.LastLoginAt())

	u.Deactivate()
	assert.False(t, u.IsActive())
	u.Activate()
	assert.True(t, u.IsActive())

	prev := u.UpdatedAt()
	u.UpdateLastLogin()
	require.NotNil(t, u.LastLoginAt())
	assert.True(t, u.LastLoginAt().After(prev))

	name, _ := NewDisplayName("New Name")
	u.ChangeDisplayName(name)
	assert.Equal(t, "New Name", u.DisplayName().Value())

	avatar := "https://cdn.example.com/me.png"
	u.ChangeAvatarURL(&avatar)
	assert.Equal(t, avatar, *u.AvatarURL())
}

func TestUser_SnapshotHidesPasswordHashInJSON(t *testing.T) {
	u := newTestUser(t)
	data := u.Snapshot()
	assert.Equal(t, "$2a$12$hash", data.PasswordHash)

	back, err := data.ToUser()
	require.NoError(t, err)
	assert.True(t, back.Email().Equals(u.Email()))
}

func TestNewTag_DerivesSlug(t *testing.T) {
	name, err := NewTagName("Programação Funcional")
	require.NoError(t, err)

	tag, err := NewTag(TagParams{Name: name})
	require.NoError(t, err)
	assert.Equal(t, "programacao-funcional", tag.Slug().Value())
	assert.True(t, tag.IsActive())

	tag.Deactivate()
	assert.False(t, tag.IsActive())
	tag.Activate()
	assert.True(t, tag.IsActive())

	unsluggable, _ := NewTagName("!!")
	_, err = NewTag(TagParams{Name: unsluggable})
	assert.Error(t, err)
}

func TestTokenPayload_IsExpired(t *testing.T) {
	now := time.Now()
	p := TokenPayload{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, p.IsExpired(now))
	assert.True(t, p.IsExpired(now.Add(time.Minute)))
}
