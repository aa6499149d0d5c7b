package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

const (
	getEntrySQL = `SELECT value FROM kv_entries WHERE key = $1`

	setEntrySQL = `INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStorage struct {
	db dbtx
}

func NewPostgresStorage(pool *pgxpool.Pool) (port.Storage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &postgresStorage{db: pool}, nil
}

func NewPostgresStorageWithTx(tx pgx.Tx) (port.Storage, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx is nil")
	}

	return &postgresStorage{db: tx}, nil
}

func (s *postgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}

	var value string

	err := s.db.QueryRow(ctx, getEntrySQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db.QueryRow: %w", err)
	}

	return value, true, nil
}

func (s *postgresStorage) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}

	if _, err := s.db.Exec(ctx, setEntrySQL, key, value); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}
