package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/modules/post/domain"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/store"
)

const table = "posts"

var errPostNotFound = oops.Errorf("post not found")

// SQLiteStorage implements Repository on top of the shared SQLite database
type SQLiteStorage struct {
	*store.Table[domain.Post]
}

// NewSQLiteStorage creates a new SQLite-backed post repository
func NewSQLiteStorage(db *sqlx.DB) Repository {
	return &SQLiteStorage{Table: store.NewTable[domain.Post](db, table, errPostNotFound)}
}

func (s *SQLiteStorage) Add(ctx context.Context, post *domain.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.CreatedAt = post.CreatedAt.UTC()

	res, err := s.Exec(ctx, s.Builder.Insert(table).
		Columns("channel_id", "group_key", "text", "files", "status", "error", "created_at").
		Values(post.ChannelID, post.GroupKey, post.Text, post.Files, string(post.Status), post.Error, post.CreatedAt))
	if err != nil {
		return oops.With("channel_id", post.ChannelID, "group_key", post.GroupKey, "context", "failed to save post").Wrap(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("channel_id", post.ChannelID).Wrap(err)
	}
	post.ID = id
	return nil
}

func (s *SQLiteStorage) Update(ctx context.Context, post *domain.Post) error {
	_, err := s.Exec(ctx, s.Builder.Update(table).
		SetMap(map[string]any{
			"text":   post.Text,
			"files":  post.Files,
			"status": string(post.Status),
			"error":  post.Error,
		}).
		Where(sq.Eq{"id": post.ID}))
	return err
}

// GetPosts returns the newest posts first. An empty status matches all.
func (s *SQLiteStorage) GetPosts(ctx context.Context, channelID int64, status domain.PostStatus, limit int) ([]*domain.Post, error) {
	q := s.Builder.Select("*").From(table).
		Where(sq.Eq{"channel_id": channelID}).
		OrderBy("created_at DESC", "id DESC")
	if status != "" {
		q = q.Where(sq.Eq{"status": string(status)})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.Select(ctx, q)
}

func (s *SQLiteStorage) GetRecentPosts(ctx context.Context, channelID int64, since time.Time) ([]*domain.Post, error) {
	return s.Select(ctx, s.Builder.Select("*").From(table).
		Where(sq.Eq{"channel_id": channelID}).
		Where(sq.Gt{"created_at": since.UTC()}).
		OrderBy("created_at", "id"))
}

func (s *SQLiteStorage) CountByStatus(ctx context.Context, channelID int64) (map[domain.PostStatus]int, error) {
	query, args, err := s.Builder.Select("status", "COUNT(*) AS n").From(table).
		Where(sq.Eq{"channel_id": channelID}).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, oops.Wrap(err)
	}

	var rows []struct {
		Status domain.PostStatus `db:"status"`
		N      int               `db:"n"`
	}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, oops.With("channel_id", channelID, "context", "failed to count posts").Wrap(err)
	}

	out := make(map[domain.PostStatus]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
