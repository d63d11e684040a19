package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/database"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteStorage(db)
}

func newChannel(name, chat string) *domain.Channel {
	return &domain.Channel{
		Name:      name,
		ChatID:    chat,
		Interval:  60,
		ParseMode: domain.ParseModeHtml,
		SourceDir: "/base/" + name + "/source",
		DoneDir:   "/base/" + name + "/done",
		ExceptDir: "/base/" + name + "/except",
	}
}

func TestChannelCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	ch := newChannel("News", "-100123")
	require.NoError(t, repo.Add(ctx, ch))
	require.NotZero(t, ch.ID)

	got, err := repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "News", got.Name)
	assert.Equal(t, "-100123", got.ChatID)
	assert.Equal(t, domain.ParseModeHtml, got.ParseMode)
	assert.False(t, got.Active)

	got.Interval = 5
	got.Active = true
	require.NoError(t, repo.Update(ctx, got))

	byName, err := repo.GetByName(ctx, "News")
	require.NoError(t, err)
	assert.Equal(t, 5, byName.Interval)
	assert.True(t, byName.Active)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, ch.ID))
	_, err = repo.Get(ctx, ch.ID)
	assert.ErrorIs(t, err, errors.ErrChannelNotFound)
}

func TestChannelUniqueName(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Add(ctx, newChannel("News", "-1")))
	err := repo.Add(ctx, newChannel("News", "-2"))
	assert.ErrorIs(t, err, errors.ErrChannelExists)
}

func TestGetActiveAndSetActive(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a := newChannel("A", "-1")
	b := newChannel("B", "-2")
	require.NoError(t, repo.Add(ctx, a))
	require.NoError(t, repo.Add(ctx, b))

	require.NoError(t, repo.SetActive(ctx, b.ID, true))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "B", active[0].Name)

	require.NoError(t, repo.SetActive(ctx, b.ID, false))
	active, err = repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, repo.SetActive(ctx, 999, true), errors.ErrChannelNotFound)
}

func TestUpdateMissing(t *testing.T) {
	repo := newRepo(t)
	ch := newChannel("Ghost", "-9")
	ch.ID = 42
	assert.ErrorIs(t, repo.Update(context.Background(), ch), errors.ErrChannelNotFound)
}
