package state

import (
	"context"

	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/store"
	"algoliatap/internal/platform/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookmarksDDL = `
CREATE TABLE IF NOT EXISTS sync_bookmarks (
	stream     text        NOT NULL,
	index_name text        NOT NULL,
	last_date  date        NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (stream, index_name)
)`

// monotonic upsert: GREATEST guards against concurrent or out-of-order
// advances at the database level, not just in process
const setBookmarkSQL = `
INSERT INTO sync_bookmarks (stream, index_name, last_date, updated_at)
VALUES ($1, $2, $3::date, now())
ON CONFLICT (stream, index_name) DO UPDATE
SET last_date  = GREATEST(sync_bookmarks.last_date, EXCLUDED.last_date),
    updated_at = now()`

const getBookmarkSQL = `
SELECT last_date::text FROM sync_bookmarks WHERE stream = $1 AND index_name = $2`

// PostgresStore keeps bookmarks in a sync_bookmarks table so multiple hosts
// can share one extraction state
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens the pool and ensures the bookmark table exists
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := store.OpenPG(ctx, store.PGConfig{URL: url})
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, bookmarksDDL); err != nil {
		pool.Close()
		return nil, perr.FromPostgres(err, "create sync_bookmarks")
	}
	return &PostgresStore{pool: pool}, nil
}

// Bookmark implements domain.StatePort
func (s *PostgresStore) Bookmark(ctx context.Context, stream, index string) (timeutil.Date, bool, error) {
	var raw string
	err := s.pool.QueryRow(ctx, getBookmarkSQL, stream, index).Scan(&raw)
	if err == pgx.ErrNoRows {
		return timeutil.Date{}, false, nil
	}
	if err != nil {
		return timeutil.Date{}, false, perr.FromPostgres(err, "read bookmark")
	}
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		return timeutil.Date{}, false, perr.Wrapf(err, perr.ErrorCodeDB, "corrupt bookmark %s/%s=%q", stream, index, raw)
	}
	return d, true, nil
}

// SetBookmark implements domain.StatePort
func (s *PostgresStore) SetBookmark(ctx context.Context, stream, index string, d timeutil.Date) error {
	if _, err := s.pool.Exec(ctx, setBookmarkSQL, stream, index, d.String()); err != nil {
		return perr.FromPostgres(err, "write bookmark")
	}
	return nil
}

// Close implements domain.StatePort
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
