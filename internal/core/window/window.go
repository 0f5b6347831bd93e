// Package window partitions an inclusive date range into request-sized
// sub-ranges. The analytics API rejects ranges longer than 30 days, so a
// sync over a long range is issued as a sequence of bounded windows.
package window

import (
	"fmt"

	"algoliatap/internal/platform/timeutil"
)

// MaxDays is the upstream limit on a single request's date range
const MaxDays = 30

// Window is an inclusive [Start, End] date pair
type Window struct {
	Start timeutil.Date
	End   timeutil.Date
}

// Days returns the window length in days, inclusive of both endpoints
func (w Window) Days() int { return w.Start.DaysUntil(w.End) + 1 }

// String renders the window as "start..end"
func (w Window) String() string { return fmt.Sprintf("%s..%s", w.Start, w.End) }

// ClampSize normalizes a configured window size into [1, MaxDays]
func ClampSize(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// Partition splits [start, end] into ordered, contiguous, non-overlapping
// windows of at most maxDays each; the last window may be shorter. A start
// after end means there is nothing to sync and yields an empty slice - that
// is the ordinary "already up to date" case, not an error. The output is
// fully determined by the inputs so replays produce identical windows.
func Partition(start, end timeutil.Date, maxDays int) []Window {
	if start.After(end) {
		return nil
	}
	maxDays = ClampSize(maxDays)

	out := make([]Window, 0, start.DaysUntil(end)/maxDays+1)
	for cur := start; !cur.After(end); cur = cur.AddDays(maxDays) {
		we := cur.AddDays(maxDays - 1)
		if we.After(end) {
			we = end
		}
		out = append(out, Window{Start: cur, End: we})
	}
	return out
}
