package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/service"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	posting "github.com/reshetovitsme/channel-autoposter/internal/modules/posting/service"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/database"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

type fixture struct {
	svc       *service.Service
	repo      repository.Repository
	store     *files.Store
	scheduler *posting.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := files.NewStore(filepath.Join(t.TempDir(), "channels"), nil, nil)
	require.NoError(t, err)

	repo := repository.NewSQLiteStorage(db)
	publisher := posting.NewPublisher(posting.PublisherConfig{}, nil, store, nil, nil, nil, nil)
	scheduler := posting.NewScheduler(posting.SchedulerConfig{}, repo, store, publisher, nil, nil)
	t.Cleanup(func() { _ = scheduler.Stop(context.Background()) })

	return &fixture{
		svc:       service.New(repo, store, scheduler, 0, nil),
		repo:      repo,
		store:     store,
		scheduler: scheduler,
	}
}

func TestCreateProvisionsAndSchedules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ch := &domain.Channel{Name: " News ", ChatID: "@news", Active: true}
	require.NoError(t, f.svc.Create(ctx, ch))

	assert.NotZero(t, ch.ID)
	assert.Equal(t, "News", ch.Name)
	assert.Equal(t, domain.DefaultInterval, ch.Interval)
	assert.Equal(t, domain.ParseModeHtml, ch.ParseMode)
	assert.Equal(t, f.store.Paths("News").Source, ch.SourceDir)
	assert.DirExists(t, ch.SourceDir)
	assert.DirExists(t, ch.DoneDir)
	assert.DirExists(t, ch.ExceptDir)
	assert.True(t, f.scheduler.IsScheduled(ch.ID))

	err := f.svc.Create(ctx, &domain.Channel{Name: "News", ChatID: "@other"})
	assert.ErrorIs(t, err, errors.ErrChannelExists)
}

func TestCreateRejectsInvalid(t *testing.T) {
	f := newFixture(t)
	for _, ch := range []*domain.Channel{
		{Name: "", ChatID: "@x"},
		{Name: "../escape", ChatID: "@x"},
		{Name: "ok", ChatID: ""},
		{Name: "ok", ChatID: "@x", ParseMode: "rtf"},
	} {
		assert.ErrorIs(t, f.svc.Create(context.Background(), ch), errors.ErrInvalidChannel, ch.Name)
	}
}

func TestActivateFailsClosed(t *testing.T) {
	_, err := newFixture(t).svc.Activate(context.Background(), 42)
	assert.ErrorIs(t, err, errors.ErrChannelNotFound)
}

func TestActivateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch := &domain.Channel{Name: "Cats", ChatID: "@cats"}
	require.NoError(t, f.svc.Create(ctx, ch))
	assert.False(t, f.scheduler.IsScheduled(ch.ID))

	got, err := f.svc.Activate(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.True(t, f.scheduler.IsScheduled(ch.ID))

	require.NoError(t, f.svc.Deactivate(ctx, ch.ID))
	assert.False(t, f.scheduler.IsScheduled(ch.ID))
	stored, err := f.repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	// Idempotent, including for unknown ids.
	require.NoError(t, f.svc.Deactivate(ctx, ch.ID))
	require.NoError(t, f.svc.Deactivate(ctx, 999))
}

func TestUpdateReschedulesAndRenames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch := &domain.Channel{Name: "Dogs", ChatID: "@dogs", Active: true, Interval: 60}
	require.NoError(t, f.svc.Create(ctx, ch))
	require.NoError(t, os.WriteFile(filepath.Join(ch.SourceDir, "001.txt"), []byte("woof"), 0o644))

	updated, err := f.svc.Update(ctx, ch.ID, &domain.Channel{
		Name: "Puppies", ChatID: "@dogs", Interval: 30, ParseMode: domain.ParseModeMarkdownv2, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Puppies", updated.Name)
	assert.Equal(t, f.store.Paths("Puppies").Source, updated.SourceDir)
	assert.FileExists(t, filepath.Join(updated.SourceDir, "001.txt"))
	assert.True(t, f.scheduler.IsScheduled(ch.ID))

	stored, err := f.repo.Get(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Interval)
	assert.Equal(t, domain.ParseModeMarkdownv2, stored.ParseMode)

	_, err = f.svc.Update(ctx, ch.ID, &domain.Channel{Name: "Puppies", ChatID: "@dogs"})
	require.NoError(t, err)
	assert.False(t, f.scheduler.IsScheduled(ch.ID))

	_, err = f.svc.Update(ctx, 777, &domain.Channel{Name: "X", ChatID: "@x"})
	assert.ErrorIs(t, err, errors.ErrChannelNotFound)
}

func TestUpdateRejectsTakenName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := &domain.Channel{Name: "A", ChatID: "@a"}
	require.NoError(t, f.svc.Create(ctx, a))
	require.NoError(t, f.svc.Create(ctx, &domain.Channel{Name: "B", ChatID: "@b"}))

	_, err := f.svc.Update(ctx, a.ID, &domain.Channel{Name: "B", ChatID: "@a"})
	assert.ErrorIs(t, err, errors.ErrChannelExists)
	assert.DirExists(t, f.store.Paths("A").Root)
}

func TestUpdateRejectsTakenChatKeepsTree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := &domain.Channel{Name: "A", ChatID: "@a"}
	require.NoError(t, f.svc.Create(ctx, a))
	require.NoError(t, f.svc.Create(ctx, &domain.Channel{Name: "B", ChatID: "@b"}))
	require.NoError(t, os.WriteFile(filepath.Join(a.SourceDir, "001.txt"), []byte("hi"), 0o644))

	_, err := f.svc.Update(ctx, a.ID, &domain.Channel{Name: "C", ChatID: "@b"})
	assert.ErrorIs(t, err, errors.ErrChannelExists)

	stored, err := f.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)
	assert.FileExists(t, filepath.Join(f.store.Paths("A").Source, "001.txt"))
	assert.NoDirExists(t, f.store.Paths("C").Root)
}

// failingUpdates stores everything except updates.
type failingUpdates struct {
	repository.Repository
}

func (failingUpdates) Update(context.Context, *domain.Channel) error {
	return errors.ErrUnexpected
}

func TestUpdateRestoresTreeWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := service.New(failingUpdates{f.repo}, f.store, f.scheduler, 0, nil)

	ch := &domain.Channel{Name: "Old", ChatID: "@old"}
	require.NoError(t, svc.Create(ctx, ch))
	require.NoError(t, os.WriteFile(filepath.Join(ch.SourceDir, "001.txt"), []byte("hi"), 0o644))

	_, err := svc.Update(ctx, ch.ID, &domain.Channel{Name: "New", ChatID: "@old"})
	assert.ErrorIs(t, err, errors.ErrUnexpected)

	assert.FileExists(t, filepath.Join(f.store.Paths("Old").Source, "001.txt"))
	assert.NoDirExists(t, f.store.Paths("New").Root)
}

func TestCreateCleansUpWhenChatTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.svc.Create(ctx, &domain.Channel{Name: "First", ChatID: "@same"}))

	err := f.svc.Create(ctx, &domain.Channel{Name: "Second", ChatID: "@same"})
	assert.ErrorIs(t, err, errors.ErrChannelExists)
	assert.NoDirExists(t, f.store.Paths("Second").Root)

	// A tree that was there before is left alone.
	require.NoError(t, os.MkdirAll(filepath.Join(f.store.Paths("Third").Source), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.store.Paths("Third").Source, "001.txt"), []byte("kept"), 0o644))
	err = f.svc.Create(ctx, &domain.Channel{Name: "Third", ChatID: "@same"})
	assert.ErrorIs(t, err, errors.ErrChannelExists)
	assert.FileExists(t, filepath.Join(f.store.Paths("Third").Source, "001.txt"))
}

func TestDeleteRemovesTimerAndRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch := &domain.Channel{Name: "Temp", ChatID: "@temp", Active: true}
	require.NoError(t, f.svc.Create(ctx, ch))

	require.NoError(t, f.svc.Delete(ctx, ch.ID, true))
	assert.False(t, f.scheduler.IsScheduled(ch.ID))
	assert.NoDirExists(t, f.store.Paths("Temp").Root)

	_, err := f.repo.Get(ctx, ch.ID)
	assert.ErrorIs(t, err, errors.ErrChannelNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, ch.ID, false), errors.ErrChannelNotFound)
}

func TestFilesAndOverview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ch := &domain.Channel{Name: "Art", ChatID: "@art", Active: true}
	require.NoError(t, f.svc.Create(ctx, ch))
	require.NoError(t, os.WriteFile(filepath.Join(ch.SourceDir, "001.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ch.DoneDir, "000.txt"), []byte("y"), 0o644))

	listing, err := f.svc.Files(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"001.txt"}, listing[files.FolderSource])
	assert.Equal(t, []string{"000.txt"}, listing[files.FolderDone])

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.True(t, overview[0].Scheduled)
	assert.Equal(t, 1, overview[0].Pending)
}
