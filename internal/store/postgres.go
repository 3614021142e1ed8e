package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres implements Store on a single kv table:
//
//	records(key TEXT PRIMARY KEY, value TEXT NOT NULL, expires_at TIMESTAMPTZ)
//
// IncrBy uses a single upsert statement so concurrent increments cannot lose
// updates; expired rows are treated as absent and overwritten lazily.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an established sqlx connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Get returns the value for key or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.GetContext(ctx, &value,
		`SELECT value FROM records WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pg get %s: %w", key, err)
	}
	return value, nil
}

// Put writes the value for key unconditionally, clearing any expiry.
func (p *Postgres) Put(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO records (key, value, expires_at) VALUES ($1, $2, NULL)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = NULL`, key, value)
	if err != nil {
		return fmt.Errorf("pg put %s: %w", key, err)
	}
	return nil
}

// PutNX writes the value only if no live row exists for key.
func (p *Postgres) PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO records (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		 WHERE records.expires_at IS NOT NULL AND records.expires_at <= now()`, key, value, expires)
	if err != nil {
		return false, fmt.Errorf("pg putnx %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pg putnx %s: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes the key.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("pg delete %s: %w", key, err)
	}
	return nil
}

// List returns all live key/value pairs whose key starts with prefix.
func (p *Postgres) List(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := p.db.QueryxContext(ctx,
		`SELECT key, value FROM records
		 WHERE key LIKE $1 || '%' AND (expires_at IS NULL OR expires_at > now())`, prefix)
	if err != nil {
		return nil, fmt.Errorf("pg list %s: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("pg list scan: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg list rows: %w", err)
	}
	return out, nil
}

// IncrBy atomically adds delta to the integer value at key.
func (p *Postgres) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var value int64
	err := p.db.GetContext(ctx, &value,
		`INSERT INTO records (key, value, expires_at) VALUES ($1, $2::text, NULL)
		 ON CONFLICT (key) DO UPDATE SET value = ((records.value)::bigint + $2)::text, expires_at = NULL
		 RETURNING (value)::bigint`, key, delta)
	if err != nil {
		return 0, fmt.Errorf("pg incrby %s: %w", key, err)
	}
	return value, nil
}

// TTL returns the remaining lifetime of key.
func (p *Postgres) TTL(ctx context.Context, key string) (time.Duration, error) {
	var expires sql.NullTime
	err := p.db.GetContext(ctx, &expires,
		`SELECT expires_at FROM records WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("pg ttl %s: %w", key, err)
	}
	if !expires.Valid {
		return 0, nil
	}
	return time.Until(expires.Time), nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
