package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	version BIGINT NOT NULL
)`

type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn and creates the documents table if it
// does not exist yet.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var value string
	var version int64
	err := s.pool.QueryRow(ctx, `SELECT value::text, version FROM documents WHERE key = $1`, key).
		Scan(&value, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Entry{Value: []byte(value), Version: version}, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, version int64) (int64, error) {
	var query string
	var args []any
	if version == 0 {
		query = `INSERT INTO documents (key, value, version) VALUES ($1, $2::jsonb, 1)
ON CONFLICT (key) DO NOTHING`
		args = []any{key, string(value)}
	} else {
		query = `UPDATE documents SET value = $2::jsonb, version = version + 1
WHERE key = $1 AND version = $3`
		args = []any{key, string(value), version}
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrConflict
	}
	return version + 1, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
