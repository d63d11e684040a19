package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
)

// Repository is the persistence contract shared by every entity.
// Implementations add entity-specific queries on top of it.
type Repository[T any] interface {
	Add(ctx context.Context, entity *T) error
	Get(ctx context.Context, id int64) (*T, error)
	GetAll(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int64) error
}

// Table implements the generic read and delete paths of Repository for a
// single table whose rows map onto T via sqlx `db` tags.
type Table[T any] struct {
	DB       *sqlx.DB
	Name     string
	Builder  sq.StatementBuilderType
	NotFound error
}

// NewTable creates a table helper. notFound is returned by Get for missing rows.
func NewTable[T any](db *sqlx.DB, name string, notFound error) *Table[T] {
	return &Table[T]{
		DB:       db,
		Name:     name,
		Builder:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		NotFound: notFound,
	}
}

// Get loads the row with the given id.
func (t *Table[T]) Get(ctx context.Context, id int64) (*T, error) {
	return t.GetBy(ctx, sq.Eq{"id": id})
}

// GetBy loads the first row matching pred.
func (t *Table[T]) GetBy(ctx context.Context, pred any) (*T, error) {
	query, args, err := t.Builder.Select("*").From(t.Name).Where(pred).Limit(1).ToSql()
	if err != nil {
		return nil, oops.With("table", t.Name).Wrap(err)
	}

	var entity T
	if err := t.DB.GetContext(ctx, &entity, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, t.NotFound
		}
		return nil, oops.With("table", t.Name, "context", "failed to get row").Wrap(err)
	}
	return &entity, nil
}

// GetAll loads every row ordered by id.
func (t *Table[T]) GetAll(ctx context.Context) ([]*T, error) {
	return t.Select(ctx, t.Builder.Select("*").From(t.Name).OrderBy("id"))
}

// Select runs a prepared select builder.
func (t *Table[T]) Select(ctx context.Context, b sq.SelectBuilder) ([]*T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, oops.With("table", t.Name).Wrap(err)
	}

	entities := []*T{}
	if err := t.DB.SelectContext(ctx, &entities, query, args...); err != nil {
		return nil, oops.With("table", t.Name, "context", "failed to select rows").Wrap(err)
	}
	return entities, nil
}

// Delete removes the row with the given id. Missing rows are not an error.
func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	_, err := t.Exec(ctx, t.Builder.Delete(t.Name).Where(sq.Eq{"id": id}))
	return err
}

// Exec runs an insert, update or delete builder.
func (t *Table[T]) Exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, oops.With("table", t.Name).Wrap(err)
	}

	res, err := t.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("table", t.Name, "context", "failed to execute statement").Wrap(err)
	}
	return res, nil
}
