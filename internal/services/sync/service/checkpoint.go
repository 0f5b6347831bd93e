package service

import (
	"context"

	"algoliatap/internal/platform/timeutil"
	"algoliatap/internal/services/sync/domain"
)

// Checkpoints owns all bookmark reads and writes. Nothing else touches the
// state store for (stream, index) marks.
type Checkpoints struct {
	State domain.StatePort

	// Rewind makes EffectiveStart ignore stored bookmarks so a run can
	// re-extract history; Advance stays monotonic regardless
	Rewind bool
}

// EffectiveStart resolves where a partition resumes: the day after its
// bookmark, but never earlier than the configured start
func (c *Checkpoints) EffectiveStart(
	ctx context.Context,
	stream, index string,
	configured timeutil.Date,
) (timeutil.Date, error) {
	if c.Rewind {
		return configured, nil
	}
	mark, ok, err := c.State.Bookmark(ctx, stream, index)
	if err != nil {
		return timeutil.Date{}, err
	}
	if !ok {
		return configured, nil
	}
	return timeutil.Max(configured, mark.AddDays(1)), nil
}

// Advance persists done as the partition's bookmark. It is idempotent and
// monotonic: an earlier or equal date is a no-op, never a rollback.
func (c *Checkpoints) Advance(ctx context.Context, stream, index string, done timeutil.Date) error {
	cur, ok, err := c.State.Bookmark(ctx, stream, index)
	if err != nil {
		return err
	}
	if ok && !done.After(cur) {
		return nil
	}
	return c.State.SetBookmark(ctx, stream, index, done)
}
