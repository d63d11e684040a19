package service

import (
	"context"
	"time"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/post/repository"
)

// Service handles post log business logic
type Service struct {
	repo repository.Repository
}

// New creates a new post service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Record saves a publication attempt
func (s *Service) Record(ctx context.Context, post *domain.Post) error {
	return s.repo.Add(ctx, post)
}

// GetPublished retrieves the newest published posts of a channel
func (s *Service) GetPublished(ctx context.Context, channelID int64, limit int) ([]*domain.Post, error) {
	return s.repo.GetPosts(ctx, channelID, domain.PostStatusPublished, limit)
}

// GetPosts retrieves the newest posts of a channel regardless of status
func (s *Service) GetPosts(ctx context.Context, channelID int64, limit int) ([]*domain.Post, error) {
	return s.repo.GetPosts(ctx, channelID, "", limit)
}

// GetRecentPosts retrieves posts recorded after since
func (s *Service) GetRecentPosts(ctx context.Context, channelID int64, since time.Time) ([]*domain.Post, error) {
	return s.repo.GetRecentPosts(ctx, channelID, since)
}

// Stats counts posts of a channel per status
func (s *Service) Stats(ctx context.Context, channelID int64) (map[domain.PostStatus]int, error) {
	return s.repo.CountByStatus(ctx, channelID)
}
