package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	channelRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

// Scheduler is the timer registry the controller drives.
type Scheduler interface {
	Activate(ch *domain.Channel)
	Deactivate(ctx context.Context, ch *domain.Channel) error
	Remove(id int64)
	IsScheduled(id int64) bool
	NextRun(id int64) (time.Time, bool)
}

// Directories provisions channel trees on disk.
type Directories interface {
	Check(name string) error
	Create(name string) (files.Paths, error)
	Rename(oldName, newName string) (files.Paths, error)
	Delete(name string) error
	Listing(name string) (map[files.Folder][]string, error)
}

// Status is a channel together with its scheduling state.
type Status struct {
	Channel   *domain.Channel
	Scheduled bool
	NextRun   time.Time
	Pending   int
}

// Service handles channel business logic and turns channels on and off
type Service struct {
	repo            channelRepo.Repository
	dirs            Directories
	scheduler       Scheduler
	defaultInterval int
	logger          *slog.Logger
}

// New creates a new channel service. defaultInterval applies to channels
// created without one.
func New(repo channelRepo.Repository, dirs Directories, scheduler Scheduler, defaultInterval int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultInterval <= 0 {
		defaultInterval = domain.DefaultInterval
	}
	return &Service{
		repo:            repo,
		dirs:            dirs,
		scheduler:       scheduler,
		defaultInterval: defaultInterval,
		logger:          logger,
	}
}

// Create provisions the channel's directories and stores it.
// An active channel is scheduled right away.
func (s *Service) Create(ctx context.Context, ch *domain.Channel) error {
	if ch.Interval <= 0 {
		ch.Interval = s.defaultInterval
	}
	if err := ch.Normalize(); err != nil {
		return err
	}

	existed := !errors.Is(s.dirs.Check(ch.Name), errors.ErrNotFound)
	paths, err := s.dirs.Create(ch.Name)
	if err != nil {
		return err
	}
	ch.SourceDir, ch.DoneDir, ch.ExceptDir = paths.Source, paths.Done, paths.Except

	if err := s.repo.Add(ctx, ch); err != nil {
		if !existed {
			if derr := s.dirs.Delete(ch.Name); derr != nil {
				s.logger.Error("Failed to remove directories of unsaved channel", "channel", ch.Name, "error", derr)
			}
		}
		return oops.With("channel", ch.Name, "context", "failed to save channel").Wrap(err)
	}
	s.logger.Info("Channel created", "channel", ch.Name, "channel_id", ch.ID, "chat_id", ch.ChatID)

	if ch.Active {
		s.scheduler.Activate(ch)
	}
	return nil
}

// Get retrieves a channel by ID
func (s *Service) Get(ctx context.Context, id int64) (*domain.Channel, error) {
	return s.repo.Get(ctx, id)
}

// GetAll retrieves all channels
func (s *Service) GetAll(ctx context.Context) ([]*domain.Channel, error) {
	return s.repo.GetAll(ctx)
}

// Update applies changes to an existing channel. Renaming moves its
// directory tree; the timer follows the new active flag and interval.
func (s *Service) Update(ctx context.Context, id int64, changes *domain.Channel) (*domain.Channel, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = changes.Name
	updated.ChatID = changes.ChatID
	updated.Interval = changes.Interval
	updated.ParseMode = changes.ParseMode
	updated.Active = changes.Active
	if err := updated.Normalize(); err != nil {
		return nil, err
	}

	if updated.ChatID != current.ChatID {
		if err := s.checkChatFree(ctx, id, updated.ChatID); err != nil {
			return nil, err
		}
	}

	renamed := updated.Name != current.Name
	if renamed {
		if _, err := s.repo.GetByName(ctx, updated.Name); err == nil {
			return nil, oops.With("channel", updated.Name).Wrap(errors.ErrChannelExists)
		}
		paths, err := s.dirs.Rename(current.Name, updated.Name)
		if err != nil {
			return nil, err
		}
		updated.SourceDir, updated.DoneDir, updated.ExceptDir = paths.Source, paths.Done, paths.Except
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if renamed {
			// The record still carries the old name, so the tree goes back too.
			if _, rerr := s.dirs.Rename(updated.Name, current.Name); rerr != nil {
				s.logger.Error("Failed to restore channel directories", "channel", current.Name, "error", rerr)
			}
		}
		return nil, oops.With("channel_id", id, "context", "failed to update channel").Wrap(err)
	}

	if updated.Active {
		s.scheduler.Activate(&updated)
	} else {
		s.scheduler.Remove(id)
	}
	s.logger.Info("Channel updated", "channel", updated.Name, "channel_id", id, "active", updated.Active)
	return &updated, nil
}

// checkChatFree fails when another channel already posts to chatID.
func (s *Service) checkChatFree(ctx context.Context, id int64, chatID string) error {
	channels, err := s.repo.GetAll(ctx)
	if err != nil {
		return oops.With("context", "failed to load channels").Wrap(err)
	}
	if lo.ContainsBy(channels, func(ch *domain.Channel) bool { return ch.ID != id && ch.ChatID == chatID }) {
		return oops.With("chat_id", chatID).Wrap(errors.ErrChannelExists)
	}
	return nil
}

// Delete removes the channel's timer, its record and, with purge, its directories.
func (s *Service) Delete(ctx context.Context, id int64, purge bool) error {
	s.scheduler.Remove(id)

	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return oops.With("channel_id", id, "context", "failed to delete channel").Wrap(err)
	}
	if purge {
		if err := s.dirs.Delete(ch.Name); err != nil {
			return err
		}
	}
	s.logger.Info("Channel deleted", "channel", ch.Name, "channel_id", id, "purge", purge)
	return nil
}

// Activate marks the channel active and schedules it.
// It fails when the channel does not exist.
func (s *Service) Activate(ctx context.Context, id int64) (*domain.Channel, error) {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, oops.With("channel_id", id).Wrap(err)
	}
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return nil, oops.With("channel_id", id, "context", "failed to persist activation").Wrap(err)
	}
	ch.Active = true
	s.scheduler.Activate(ch)
	return ch, nil
}

// Deactivate stops the channel's timer. Unknown channels and channels
// without a timer are not an error.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	ch, err := s.repo.Get(ctx, id)
	if errors.Is(err, errors.ErrChannelNotFound) {
		s.scheduler.Remove(id)
		return nil
	}
	if err != nil {
		return oops.With("channel_id", id).Wrap(err)
	}
	return s.scheduler.Deactivate(ctx, ch)
}

// Files lists the channel's source, done and except folders.
func (s *Service) Files(ctx context.Context, id int64) (map[files.Folder][]string, error) {
	ch, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dirs.Listing(ch.Name)
}

// Overview reports every channel with its timer state and staged file count.
func (s *Service) Overview(ctx context.Context) ([]Status, error) {
	channels, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(channels, func(ch *domain.Channel, _ int) Status {
		st := Status{Channel: ch, Scheduled: s.scheduler.IsScheduled(ch.ID)}
		st.NextRun, _ = s.scheduler.NextRun(ch.ID)
		if listing, err := s.dirs.Listing(ch.Name); err == nil {
			st.Pending = len(listing[files.FolderSource])
		}
		return st
	}), nil
}
