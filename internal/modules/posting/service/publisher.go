package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"

	channelDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/media"
	postDomain "github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/posting/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/metrics"
)

// Sender is the messaging capability used to deliver posts.
type Sender interface {
	SendText(ctx context.Context, chatID, text string, mode channelDomain.ParseMode) error
	SendPhotoGroup(ctx context.Context, chatID string, photos []domain.Photo, mode channelDomain.ParseMode) error
}

// FileStore is the subset of files.Store used by the pipeline.
type FileStore interface {
	ListSource(ctx context.Context, name string) ([]string, error)
	MoveAll(name string, filenames []string, dest files.Folder) int
	SourcePath(name, filename string) string
	TempDir(name string) (string, error)
	Create(name string) (files.Paths, error)
	Repair(name string, missing files.Folder) error
}

// ImageCompressor shrinks images over the size limit.
type ImageCompressor interface {
	Compress(src, dstDir string, limit int64) (media.Result, error)
}

// PostRecorder keeps a log of publication attempts.
type PostRecorder interface {
	Record(ctx context.Context, post *postDomain.Post) error
}

// PublisherConfig tunes the publisher.
type PublisherConfig struct {
	MaxImages      int
	ImageSizeLimit int64
	// KeepExcess leaves images beyond MaxImages in source instead of
	// routing them to except.
	KeepExcess bool
}

// Publisher sends prepared file groups and routes their files to done or except
type Publisher struct {
	cfg        PublisherConfig
	sender     Sender
	files      FileStore
	compressor ImageCompressor
	posts      PostRecorder
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewPublisher creates a new publisher. posts may be nil.
func NewPublisher(cfg PublisherConfig, sender Sender, fs FileStore, compressor ImageCompressor, posts PostRecorder, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = domain.MaxImages
	}
	if cfg.ImageSizeLimit <= 0 {
		cfg.ImageSizeLimit = media.DefaultSizeLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		cfg:        cfg,
		sender:     sender,
		files:      fs,
		compressor: compressor,
		posts:      posts,
		logger:     logger,
		metrics:    m,
	}
}

// Publish sends one group. It never returns an error: every failure ends
// with the group's files in except.
func (p *Publisher) Publish(ctx context.Context, ch *channelDomain.Channel, g *domain.Group) domain.Outcome {
	log := p.logger.With("channel", ch.Name, "channel_id", ch.ID, "group", g.Key)
	pub := g.Prepare(p.cfg.MaxImages)

	if pub.Caption() == "" {
		log.Warn("No caption file in group, routing to except", "files", g.Members)
		p.files.MoveAll(ch.Name, g.Members, files.FolderExcept)
		p.record(ctx, ch, pub, "", g.Members, postDomain.PostStatusRejected, errors.ErrPublishFailure)
		return p.done(domain.OutcomeRoutedToExcept)
	}

	// Excess images and unknown files are never selected on a later cycle either.
	leftovers := pub.Unknown
	if !p.cfg.KeepExcess {
		leftovers = pub.Leftovers()
	} else if len(pub.Excess) > 0 {
		log.Warn("Images over the per-post limit left in source", "files", pub.Excess)
	}
	if len(leftovers) > 0 {
		log.Warn("Files not publishable with group, routing to except", "files", leftovers)
		p.files.MoveAll(ch.Name, leftovers, files.FolderExcept)
	}

	prepared := pub.Prepared()
	text, err := p.send(ctx, ch, pub, log)
	if err != nil {
		log.Error("Failed to publish group", "files", prepared, "error", err)
		p.files.MoveAll(ch.Name, prepared, files.FolderExcept)
		p.record(ctx, ch, pub, text, prepared, postDomain.PostStatusFailed, err)
		return p.done(domain.OutcomeRoutedToExcept)
	}

	p.files.MoveAll(ch.Name, prepared, files.FolderDone)
	p.record(ctx, ch, pub, text, prepared, postDomain.PostStatusPublished, nil)
	log.Info("Successfully published group", "images", len(pub.Images))
	return p.done(domain.OutcomePublished)
}

func (p *Publisher) send(ctx context.Context, ch *channelDomain.Channel, pub domain.Publication, log *slog.Logger) (string, error) {
	raw, err := os.ReadFile(p.files.SourcePath(ch.Name, pub.Caption()))
	if err != nil {
		return "", oops.With("file", pub.Caption()).Wrap(errors.Join(errors.ErrPublishFailure, err))
	}
	text := string(raw)

	if len(pub.Images) == 0 {
		if err := p.sender.SendText(ctx, ch.ChatID, text, ch.ParseMode); err != nil {
			return text, oops.With("chat_id", ch.ChatID).Wrap(errors.Join(errors.ErrPublishFailure, err))
		}
		return text, nil
	}

	photos, cleanup, err := p.photos(ch, pub, log)
	defer cleanup()
	if err != nil {
		return text, err
	}
	photos[0].Caption = text

	if err := p.sender.SendPhotoGroup(ctx, ch.ChatID, photos, ch.ParseMode); err != nil {
		return text, oops.With("chat_id", ch.ChatID, "images", len(photos)).Wrap(errors.Join(errors.ErrPublishFailure, err))
	}
	return text, nil
}

// photos resolves image paths, compressing the ones over the size limit.
// The returned cleanup removes compressed copies.
func (p *Publisher) photos(ch *channelDomain.Channel, pub domain.Publication, log *slog.Logger) ([]domain.Photo, func(), error) {
	var temp []string
	cleanup := func() {
		for _, path := range temp {
			_ = os.Remove(path)
		}
	}

	photos := make([]domain.Photo, 0, len(pub.Images))
	for _, name := range pub.Images {
		path := p.files.SourcePath(ch.Name, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, cleanup, oops.With("file", name).Wrap(errors.Join(errors.ErrPublishFailure, err))
		}

		if info.Size() > p.cfg.ImageSizeLimit {
			dir, err := p.files.TempDir(ch.Name)
			if err != nil {
				return nil, cleanup, oops.With("file", name).Wrap(errors.Join(errors.ErrPublishFailure, err))
			}
			res, err := p.compressor.Compress(path, dir, p.cfg.ImageSizeLimit)
			if err != nil {
				return nil, cleanup, oops.With("file", name).Wrap(errors.Join(errors.ErrPublishFailure, err))
			}
			temp = append(temp, res.Path)
			if !res.Fits {
				log.Warn("Image still over size limit after compression", "file", name, "size", res.Size, "limit", p.cfg.ImageSizeLimit)
			}
			path = res.Path
		}

		photos = append(photos, domain.Photo{Path: path})
	}
	return photos, cleanup, nil
}

func (p *Publisher) record(ctx context.Context, ch *channelDomain.Channel, pub domain.Publication, text string, filenames []string, status postDomain.PostStatus, cause error) {
	if p.posts == nil {
		return
	}
	post := &postDomain.Post{
		ChannelID: ch.ID,
		GroupKey:  pub.Key,
		Text:      text,
		Files:     filenames,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		post.Error = cause.Error()
	}
	if err := p.posts.Record(ctx, post); err != nil {
		p.logger.Error("Failed to record post", "channel_id", ch.ID, "group", pub.Key, "error", err)
	}
}

func (p *Publisher) done(o domain.Outcome) domain.Outcome {
	p.metrics.RecordGroup(o.String())
	return o
}
