package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/user/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

const table = "users"

// SQLiteStorage implements Repository on top of the shared SQLite database
type SQLiteStorage struct {
	*store.Table[domain.User]
}

// NewSQLiteStorage creates a new SQLite-backed user repository
func NewSQLiteStorage(db *sqlx.DB) Repository {
	return &SQLiteStorage{Table: store.NewTable[domain.User](db, table, errors.ErrUserNotFound)}
}

func (s *SQLiteStorage) Add(ctx context.Context, user *domain.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := s.Exec(ctx, s.Builder.Insert(table).
		Columns("username", "password_hash", "created_at").
		Values(user.Username, user.PasswordHash, user.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return oops.With("username", user.Username).Errorf("user already exists")
		}
		return oops.With("username", user.Username, "context", "failed to insert user").Wrap(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("username", user.Username).Wrap(err)
	}
	user.ID = id
	return nil
}

func (s *SQLiteStorage) Update(ctx context.Context, user *domain.User) error {
	res, err := s.Exec(ctx, s.Builder.Update(table).
		Set("username", user.Username).
		Set("password_hash", user.PasswordHash).
		Where(sq.Eq{"id": user.ID}))
	if err != nil {
		return oops.With("user_id", user.ID, "context", "failed to update user").Wrap(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return oops.With("user_id", user.ID).Wrap(errors.ErrUserNotFound)
	}
	return nil
}

func (s *SQLiteStorage) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.GetBy(ctx, sq.Eq{"username": username})
}
