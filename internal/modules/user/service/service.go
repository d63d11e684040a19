package service

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/user/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/user/repository"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

// Service handles user business logic
type Service struct {
	repo repository.Repository
	cost int
}

// New creates a new user service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		cost: bcrypt.DefaultCost,
	}
}

// Register stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, oops.With("username", username).Errorf("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, oops.With("username", username, "context", "failed to hash password").Wrap(err)
	}

	user := &domain.User{Username: username, PasswordHash: string(hash)}
	if err := s.repo.Add(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the configured admin account, or resets its password
// when it no longer matches the configuration.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, errors.ErrUserNotFound) {
		if _, err := s.Register(ctx, username, password); err != nil {
			return err
		}
		slog.Info("Admin user created", "username", username)
		return nil
	}
	if err != nil {
		return oops.With("username", username).Wrap(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return oops.With("username", username, "context", "failed to hash password").Wrap(err)
	}
	user.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	slog.Info("Admin password updated", "username", username)
	return nil
}

// Authenticate returns the user when the credentials match.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, oops.With("username", username).Wrap(errors.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, oops.With("username", username).Wrap(errors.ErrUnauthorized)
	}
	return user, nil
}

// GetAll retrieves all users
func (s *Service) GetAll(ctx context.Context) ([]*domain.User, error) {
	return s.repo.GetAll(ctx)
}

// IsAuthorized checks if a Telegram user may run operator commands.
// An empty allow list permits everyone.
func (s *Service) IsAuthorized(userID int64, allowedUsers []int64) bool {
	return len(allowedUsers) == 0 || lo.Contains(allowedUsers, userID)
}
