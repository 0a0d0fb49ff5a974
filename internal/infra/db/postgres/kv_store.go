package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"creator-checkout/internal/domain/ports/repository"
)

var _ repository.KeyValueStore = (*kvStore)(nil)

// executor is the subset of *pgxpool.Pool the store needs.
type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// kvStore keeps client-scoped state in the client_state table
// (see deploy/postgres/init.sql).
type kvStore struct {
	db  executor
	now func() time.Time
}

func NewKVStore(db executor) *kvStore {
	return &kvStore{db: db, now: time.Now}
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM client_state WHERE key=$1 AND (expires_at IS NULL OR expires_at > $2);`
	var v string
	err := s.db.QueryRow(ctx, q, key, s.now().UTC()).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *kvStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const q = `
INSERT INTO client_state (key, value, expires_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, expires_at=EXCLUDED.expires_at, updated_at=EXCLUDED.updated_at;`
	now := s.now().UTC()
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}
	_, err := s.db.Exec(ctx, q, key, value, expiresAt, now)
	return err
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM client_state WHERE key=$1;`, key)
	return err
}

// PurgeExpired removes rows whose expiry has passed and reports how many went.
func (s *kvStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM client_state WHERE expires_at IS NOT NULL AND expires_at <= $1;`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
