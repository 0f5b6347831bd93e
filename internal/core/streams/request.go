package streams

import (
	"net/url"
	"strconv"
	"strings"

	"algoliatap/internal/core/window"
)

// Query carries the per-request inputs the builder combines with a
// Descriptor: which index, which date window, and the run-level settings
// that shape the parameter set.
type Query struct {
	Index          string
	Window         window.Window
	Tags           []string
	ClickAnalytics bool
	Offset         int
}

// BuildParams maps a (stream, index, window) triple to the upstream query
// parameters. Pure data transformation; no network access happens here.
func BuildParams(d Descriptor, q Query) url.Values {
	p := url.Values{}
	p.Set("index", q.Index)
	p.Set("startDate", q.Window.Start.String())
	p.Set("endDate", q.Window.End.String())

	if len(q.Tags) > 0 {
		p.Set("tags", strings.Join(q.Tags, ","))
	}

	// clickAnalytics is only meaningful for the gated streams; others
	// ignore the setting entirely
	if d.ClickAnalytics && q.ClickAnalytics {
		p.Set("clickAnalytics", "true")
	}

	if d.Paginated {
		limit := d.Limit
		if limit <= 0 {
			limit = defaultPageLimit
		}
		p.Set("limit", strconv.Itoa(limit))
		p.Set("offset", strconv.Itoa(q.Offset))
	}

	// top_searches is ranked server-side; pin the ordering so pagination
	// is stable across pages
	if d.Name == "top_searches" {
		p.Set("orderBy", "searchCount")
		p.Set("direction", "desc")
		p.Set("revenueAnalytics", "false")
	}

	return p
}
