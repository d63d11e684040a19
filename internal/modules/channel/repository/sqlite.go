package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

const table = "channels"

// SQLiteStorage implements Repository on top of the shared SQLite database
type SQLiteStorage struct {
	*store.Table[domain.Channel]
}

// NewSQLiteStorage creates a new SQLite-backed channel repository
func NewSQLiteStorage(db *sqlx.DB) Repository {
	return &SQLiteStorage{Table: store.NewTable[domain.Channel](db, table, errors.ErrChannelNotFound)}
}

func (s *SQLiteStorage) Add(ctx context.Context, channel *domain.Channel) error {
	now := time.Now().UTC()
	channel.CreatedAt = now
	channel.UpdatedAt = now

	query := s.Builder.Insert(table).
		Columns("name", "chat_id", "interval", "parse_mode", "active", "source_dir", "done_dir", "except_dir", "created_at", "updated_at").
		Values(channel.Name, channel.ChatID, channel.Interval, string(channel.ParseMode), channel.Active,
			channel.SourceDir, channel.DoneDir, channel.ExceptDir, channel.CreatedAt, channel.UpdatedAt)

	res, err := s.Exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("name", channel.Name, "chat_id", channel.ChatID).Wrap(errors.ErrChannelExists)
		}
		return oops.With("name", channel.Name, "context", "failed to insert channel").Wrap(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("name", channel.Name, "context", "failed to read channel id").Wrap(err)
	}
	channel.ID = id
	return nil
}

func (s *SQLiteStorage) Update(ctx context.Context, channel *domain.Channel) error {
	channel.UpdatedAt = time.Now().UTC()

	query := s.Builder.Update(table).
		SetMap(map[string]any{
			"name":       channel.Name,
			"chat_id":    channel.ChatID,
			"interval":   channel.Interval,
			"parse_mode": string(channel.ParseMode),
			"active":     channel.Active,
			"source_dir": channel.SourceDir,
			"done_dir":   channel.DoneDir,
			"except_dir": channel.ExceptDir,
			"updated_at": channel.UpdatedAt,
		}).
		Where(sq.Eq{"id": channel.ID})

	res, err := s.Exec(ctx, query)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.With("channel_id", channel.ID).Wrap(errors.ErrChannelExists)
		}
		return oops.With("channel_id", channel.ID, "context", "failed to update channel").Wrap(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return oops.With("channel_id", channel.ID).Wrap(errors.ErrChannelNotFound)
	}
	return nil
}

func (s *SQLiteStorage) SetActive(ctx context.Context, id int64, active bool) error {
	query := s.Builder.Update(table).
		Set("active", active).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})

	res, err := s.Exec(ctx, query)
	if err != nil {
		return oops.With("channel_id", id, "active", active).Wrap(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return oops.With("channel_id", id).Wrap(errors.ErrChannelNotFound)
	}
	return nil
}

func (s *SQLiteStorage) GetActive(ctx context.Context) ([]*domain.Channel, error) {
	return s.Select(ctx, s.Builder.Select("*").From(table).Where(sq.Eq{"active": true}).OrderBy("id"))
}

func (s *SQLiteStorage) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	return s.GetBy(ctx, sq.Eq{"name": name})
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
