package repository

import (
	"context"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/user/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

// Repository defines the interface for user data persistence
type Repository interface {
	store.Repository[domain.User]
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
