package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"github.com/samber/oops"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/posting/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/metrics"
)

// ChannelStore is the channel persistence the scheduler reads and updates.
type ChannelStore interface {
	Get(ctx context.Context, id int64) (*channelDomain.Channel, error)
	GetActive(ctx context.Context) ([]*channelDomain.Channel, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// GroupPublisher publishes one file group.
type GroupPublisher interface {
	Publish(ctx context.Context, ch *channelDomain.Channel, g *domain.Group) domain.Outcome
}

// SchedulerConfig tunes posting cycles.
type SchedulerConfig struct {
	// GroupsPerCycle caps the groups published per cycle; 0 publishes all.
	GroupsPerCycle int
}

// Scheduler owns one recurring timer per active channel.
// Cycles of the same channel never overlap: a tick that finds the
// previous cycle still running is skipped.
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entries   map[int64]cron.EntryID
	locks     map[int64]*sync.Mutex
	cfg       SchedulerConfig
	channels  ChannelStore
	files     FileStore
	publisher GroupPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a stopped scheduler. Channels may be activated before Start.
func NewScheduler(cfg SchedulerConfig, channels ChannelStore, fs FileStore, publisher GroupPublisher, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		entries:   make(map[int64]cron.EntryID),
		locks:     make(map[int64]*sync.Mutex),
		cfg:       cfg,
		channels:  channels,
		files:     fs,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins firing registered timers.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "channels", len(s.Scheduled()))
}

// Stop cancels in-flight cycles and waits for them to return or for ctx to end.
// A cancelled cycle finishes the group it is sending and skips the rest.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return oops.With("context", "scheduler did not stop in time").Wrap(ctx.Err())
	}
}

// RunStartupScan schedules every channel stored as active.
func (s *Scheduler) RunStartupScan(ctx context.Context) (int, error) {
	channels, err := s.channels.GetActive(ctx)
	if err != nil {
		return 0, oops.With("context", "failed to load active channels").Wrap(err)
	}
	if len(channels) == 0 {
		s.logger.Info("No active channels found.")
		return 0, nil
	}
	for _, ch := range channels {
		s.Activate(ch)
	}
	return len(channels), nil
}

// Activate registers the channel's recurring timer, replacing an existing one.
func (s *Scheduler) Activate(ch *channelDomain.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[ch.ID]; ok {
		s.cron.Remove(old)
	}
	if _, ok := s.locks[ch.ID]; !ok {
		s.locks[ch.ID] = &sync.Mutex{}
	}

	id := ch.ID
	s.entries[id] = s.cron.Schedule(cron.Every(ch.Every()), cron.FuncJob(func() { s.tick(id) }))
	s.metrics.SetActiveChannels(len(s.entries))
	s.logger.Info("Channel scheduled", "channel", ch.Name, "channel_id", ch.ID, "every", ch.Every().String())
}

// Deactivate removes the channel's timer and persists active=false.
// A channel that no longer exists in storage is not an error.
func (s *Scheduler) Deactivate(ctx context.Context, ch *channelDomain.Channel) error {
	s.Remove(ch.ID)
	ch.Active = false
	if err := s.channels.SetActive(ctx, ch.ID, false); err != nil && !errors.Is(err, errors.ErrChannelNotFound) {
		return oops.With("channel_id", ch.ID, "context", "failed to persist deactivation").Wrap(err)
	}
	s.logger.Info("Channel deactivated", "channel", ch.Name, "channel_id", ch.ID)
	return nil
}

// Remove unregisters the channel's timer. It is a no-op when there is none.
func (s *Scheduler) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return
	}
	s.cron.Remove(entry)
	delete(s.entries, id)
	s.metrics.SetActiveChannels(len(s.entries))
}

// IsScheduled reports whether the channel has a live timer.
func (s *Scheduler) IsScheduled(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Scheduled returns the ids of channels with a live timer.
func (s *Scheduler) Scheduled() []int64 {
	s.mu.Lock()
	ids := lo.Keys(s.entries)
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NextRun returns when the channel's timer fires next.
func (s *Scheduler) NextRun(id int64) (time.Time, bool) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entry).Next, true
}

// RunChannel loads the channel and runs one cycle for it right away.
func (s *Scheduler) RunChannel(ctx context.Context, id int64) (domain.CycleResult, error) {
	ch, err := s.channels.Get(ctx, id)
	if err != nil {
		return "", oops.With("channel_id", id).Wrap(err)
	}
	return s.RunCycle(ctx, ch), nil
}

// RunCycle lists the channel's source folder and publishes every group in it.
func (s *Scheduler) RunCycle(ctx context.Context, ch *channelDomain.Channel) domain.CycleResult {
	lock := s.lock(ch.ID)
	if !lock.TryLock() {
		s.logger.Warn("Posting cycle still running, skipping tick", "channel", ch.Name, "channel_id", ch.ID)
		s.metrics.RecordCycle(domain.CycleResultSkipped.String(), 0)
		return domain.CycleResultSkipped
	}
	defer lock.Unlock()

	start := time.Now()
	log := s.logger.With("channel", ch.Name, "channel_id", ch.ID, "cycle_id", uuid.NewString())
	log.Debug("Posting cycle started")

	result := s.cycle(ctx, ch, log)

	elapsed := time.Since(start)
	s.metrics.RecordCycle(result.String(), elapsed.Seconds())
	log.Info("Posting cycle finished", "result", result.String(), "duration", elapsed)
	return result
}

func (s *Scheduler) cycle(ctx context.Context, ch *channelDomain.Channel, log *slog.Logger) domain.CycleResult {
	filenames, err := s.list(ctx, ch, log)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrNotFound):
		log.Error("Channel directory not found, recreating and deactivating", "error", err)
		if _, err := s.files.Create(ch.Name); err != nil {
			log.Error("Failed to recreate channel directories", "error", err)
		}
		s.deactivate(ctx, ch, log)
		return domain.CycleResultNotFound
	default:
		log.Error("Unexpected error in posting cycle", "error", err)
		return domain.CycleResultUnexpected
	}

	groups := domain.GroupFiles(filenames)
	if len(groups) == 0 {
		log.Info("No files to post, deactivating channel")
		s.deactivate(ctx, ch, log)
		return domain.CycleResultStarved
	}

	keys := domain.Keys(groups)
	if n := s.cfg.GroupsPerCycle; n > 0 && len(keys) > n {
		keys = keys[:n]
	}

	published := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			log.Warn("Posting cycle interrupted", "remaining", len(keys)-published)
			break
		}
		// A group already started is sent and filed even if ctx ends meanwhile.
		if s.publisher.Publish(context.WithoutCancel(ctx), ch, groups[key]) == domain.OutcomePublished {
			published++
		}
	}
	log.Info("Groups processed", "groups", len(keys), "published", published)
	return domain.CycleResultCompleted
}

// list reads the source folder, repairing a broken tree at most once.
func (s *Scheduler) list(ctx context.Context, ch *channelDomain.Channel, log *slog.Logger) ([]string, error) {
	filenames, err := s.files.ListSource(ctx, ch.Name)

	var broken *errors.BrokenError
	if !errors.As(err, &broken) {
		return filenames, err
	}

	log.Warn("Channel directory broken, repairing", "missing", broken.Missing)
	folder, perr := files.ParseFolder(broken.Missing)
	if perr != nil {
		return nil, oops.With("missing", broken.Missing).Wrap(errors.Join(errors.ErrUnexpected, perr))
	}
	if err := s.files.Repair(ch.Name, folder); err != nil {
		return nil, oops.With("missing", broken.Missing).Wrap(errors.Join(errors.ErrUnexpected, err))
	}

	filenames, err = s.files.ListSource(ctx, ch.Name)
	if errors.Is(err, errors.ErrBroken) {
		return nil, oops.With("context", "channel directory still broken after repair").Wrap(errors.Join(errors.ErrUnexpected, err))
	}
	return filenames, err
}

func (s *Scheduler) deactivate(ctx context.Context, ch *channelDomain.Channel, log *slog.Logger) {
	if err := s.Deactivate(ctx, ch); err != nil {
		log.Error("Failed to deactivate channel", "error", err)
	}
}

// tick reloads the channel so that edits and deletions are seen.
func (s *Scheduler) tick(id int64) {
	ch, err := s.channels.Get(s.ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrChannelNotFound) {
			s.logger.Warn("Scheduled channel no longer exists, removing timer", "channel_id", id)
			s.Remove(id)
			return
		}
		s.logger.Error("Failed to load scheduled channel", "channel_id", id, "error", err)
		return
	}
	if !ch.Active {
		s.logger.Info("Scheduled channel is inactive, removing timer", "channel", ch.Name, "channel_id", id)
		s.Remove(id)
		return
	}
	s.RunCycle(s.ctx, ch)
}

func (s *Scheduler) lock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
