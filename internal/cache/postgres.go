package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres backs the Cache interface with a durable table, so matrix and
// optimization results survive process restarts. Grounded on the
// teacher's internal/store/postgres.go, which opens database/sql
// through the pgx/v5/stdlib driver rather than pgx's native pool API.
type Postgres struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS route_cache (
	row_id UUID PRIMARY KEY,
	key TEXT NOT NULL UNIQUE,
	value BYTEA NOT NULL,
	expires_at TIMESTAMPTZ
)`

// NewPostgres opens a connection pool against dsn and ensures the cache
// table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullTime
	row := p.db.QueryRowContext(ctx, `SELECT value, expires_at FROM route_cache WHERE key = $1`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		_, _ = p.db.ExecContext(ctx, `DELETE FROM route_cache WHERE key = $1`, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO route_cache (row_id, key, value, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, uuid.New(), key, value, expiresAt)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
