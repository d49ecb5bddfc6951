package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleService_WriteAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewArticleService(env.provider, env.checker, 2, testLogger())
	alice := env.register(t, "alice")

	for _, caption := range []string{"First", "Second", "Third"} {
		a, err := svc.Write(ctx, alice, map[string]any{
			"caption": caption,
			"content": "text",
			"user_id": 999,
		})
		require.NoError(t, err)
		assert.Equal(t, alice.UserID, a.UserID)
	}

	page, err := svc.List(ctx, ListParams{Order: "article_id", Dir: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Third", page.Items[0].String("caption"))
	assert.Equal(t, "alice", page.Items[0].String("author"))

	page, err = svc.List(ctx, ListParams{Order: "article_id", Dir: "desc", Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "First", page.Items[0].String("caption"))
	assert.Equal(t, 1, page.Page)

	mine, err := svc.ListByUser(ctx, admin.UserID, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, mine.Total)
	assert.NotNil(t, mine.Items)
}

func TestArticleService_WriteValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.provider, env.checker, 10, testLogger())
	alice := env.register(t, "alice")

	_, err := svc.Write(context.Background(), alice, map[string]any{"caption": ""})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "caption")
	assert.Contains(t, verr.Fields, "content")
	assert.NotContains(t, verr.Fields, "user_id")
}

func TestArticleService_EditAndDeletePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewArticleService(env.provider, env.checker, 10, testLogger())
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	a, err := svc.Write(ctx, alice, map[string]any{"caption": "Mine", "content": "text"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, bob, a.ArticleID, map[string]any{"caption": "Hacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	edited, err := svc.Edit(ctx, alice, a.ArticleID, map[string]any{"caption": "Mine v2", "user_id": bob.UserID})
	require.NoError(t, err)
	assert.Equal(t, "Mine v2", edited.Caption)
	assert.Equal(t, alice.UserID, edited.UserID)
	assert.False(t, edited.Updated.IsZero())

	row, err := svc.Get(ctx, a.ArticleID)
	require.NoError(t, err)
	assert.Equal(t, "Mine v2", row.String("caption"))
	assert.Equal(t, "alice", row.String("author"))

	assert.ErrorIs(t, svc.Delete(ctx, bob, a.ArticleID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, a.ArticleID))

	_, err = svc.Get(ctx, a.ArticleID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, a.ArticleID), ErrNotFound)
}
