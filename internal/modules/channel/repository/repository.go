package repository

import (
	"context"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

// Repository defines the interface for channel data persistence
// This abstraction allows easy replacement of storage implementations
// (e.g., SQLite -> PostgreSQL)
type Repository interface {
	store.Repository[domain.Channel]
	GetActive(ctx context.Context) ([]*domain.Channel, error)
	GetByName(ctx context.Context, name string) (*domain.Channel, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
