package domain

import (
	"context"
	"net/url"

	"algoliatap/internal/core/normalize"
	"algoliatap/internal/platform/timeutil"
)

// RequesterPort fetches one analytics payload. Implementations own transport
// retries; an error coming back means the request's retry budget is spent.
type RequesterPort interface {
	Get(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// SinkPort lands normalized records somewhere durable
type SinkPort interface {
	// Write appends a batch of records for one stream
	Write(ctx context.Context, stream string, recs []normalize.Record) error

	// Close flushes and releases the sink
	Close(ctx context.Context) error
}

// StatePort persists per (stream, index) bookmarks between runs
type StatePort interface {
	// Bookmark returns the last fully extracted date for the partition,
	// ok=false when the partition has never completed a window
	Bookmark(ctx context.Context, stream, index string) (d timeutil.Date, ok bool, err error)

	// SetBookmark records the last fully extracted date. Implementations
	// must never move a bookmark backwards.
	SetBookmark(ctx context.Context, stream, index string, d timeutil.Date) error

	// Close releases the store
	Close(ctx context.Context) error
}
