package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

// Repository defines the interface for post log persistence
type Repository interface {
	store.Repository[domain.Post]
	GetPosts(ctx context.Context, channelID int64, status domain.PostStatus, limit int) ([]*domain.Post, error)
	GetRecentPosts(ctx context.Context, channelID int64, since time.Time) ([]*domain.Post, error)
	CountByStatus(ctx context.Context, channelID int64) (map[domain.PostStatus]int, error)
}
