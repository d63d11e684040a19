package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	channelRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/media"
	postDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/posting/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/database"
)

type sentMessage struct {
	ChatID string
	Text   string
	Photos []domain.Photo
	Mode   channelDomain.ParseMode
}

// fakeSender records every send. Errors are returned in order, one per call.
type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	errs   []error
	onSend func(sentMessage)
}

func (f *fakeSender) SendText(_ context.Context, chatID, text string, mode channelDomain.ParseMode) error {
	return f.record(sentMessage{ChatID: chatID, Text: text, Mode: mode})
}

func (f *fakeSender) SendPhotoGroup(_ context.Context, chatID string, photos []domain.Photo, mode channelDomain.ParseMode) error {
	return f.record(sentMessage{ChatID: chatID, Photos: photos, Mode: mode})
}

func (f *fakeSender) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend(m)
	}
	f.sent = append(f.sent, m)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage{}, f.sent...)
}

type fakeRecorder struct {
	mu    sync.Mutex
	posts []*postDomain.Post
}

func (f *fakeRecorder) Record(_ context.Context, post *postDomain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post)
	return nil
}

type fixture struct {
	store     *files.Store
	channels  channelRepo.Repository
	sender    *fakeSender
	posts     *fakeRecorder
	publisher *Publisher
	scheduler *Scheduler
}

func newFixture(t *testing.T, cfg PublisherConfig) *fixture {
	t.Helper()

	store, err := files.NewStore(filepath.Join(t.TempDir(), "channels"), nil, nil)
	require.NoError(t, err)

	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		store:    store,
		channels: channelRepo.NewSQLiteStorage(db),
		sender:   &fakeSender{},
		posts:    &fakeRecorder{},
	}
	f.publisher = NewPublisher(cfg, f.sender, store, media.NewCompressor(nil, nil), f.posts, nil, nil)
	f.scheduler = NewScheduler(SchedulerConfig{}, f.channels, store, f.publisher, nil, nil)
	t.Cleanup(func() { _ = f.scheduler.Stop(context.Background()) })
	return f
}

// addChannel stores an active channel and, when provision is set, creates its tree.
func (f *fixture) addChannel(t *testing.T, name string, provision bool) *channelDomain.Channel {
	t.Helper()
	p := f.store.Paths(name)
	ch := &channelDomain.Channel{
		Name:      name,
		ChatID:    "@" + name,
		Interval:  5,
		ParseMode: channelDomain.ParseModeHtml,
		Active:    true,
		SourceDir: p.Source,
		DoneDir:   p.Done,
		ExceptDir: p.Except,
	}
	require.NoError(t, f.channels.Add(context.Background(), ch))
	if provision {
		_, err := f.store.Create(name)
		require.NoError(t, err)
	}
	return ch
}

func (f *fixture) stage(t *testing.T, name string, contents map[string]string) {
	t.Helper()
	for file, body := range contents {
		require.NoError(t, os.WriteFile(f.store.SourcePath(name, file), []byte(body), 0o644))
	}
}

func (f *fixture) listing(t *testing.T, name string) map[files.Folder][]string {
	t.Helper()
	l, err := f.store.Listing(name)
	require.NoError(t, err)
	return l
}
