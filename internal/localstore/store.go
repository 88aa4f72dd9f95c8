// Package localstore reads the store's export tables and keeps the
// bookkeeping of batch runs in PostgreSQL.
package localstore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Store implements syncrun.Source and syncrun.RunStore.
type Store struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func New(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func selectAll[T any](ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) ([]T, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}
	return items, nil
}

func selectOne[T any](ctx context.Context, db *pgxpool.Pool, q sq.SelectBuilder) (T, error) {
	var zero T

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return zero, fmt.Errorf("building query: %w", err)
	}

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return zero, fmt.Errorf("executing query: %w", err)
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("scanning row: %w", err)
	}
	return item, nil
}

type execer interface {
	ToSql() (string, []interface{}, error)
}

func (s *Store) exec(ctx context.Context, q execer) (int64, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building statement: %w", err)
	}

	tag, err := s.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("executing statement: %w", err)
	}
	return tag.RowsAffected(), nil
}
