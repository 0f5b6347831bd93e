// Package streams describes the eight analytics streams the tap extracts:
// which endpoint each one maps to, what shape its payload has, and the
// fields its flattened records carry.
package streams

import perr "algoliatap/internal/platform/errors"

// Shape selects the normalizer variant for a stream's payload.
// Day-bucket payloads carry a dates[] array with one row per day; per-query
// payloads carry a searches[] array with one row per distinct search text.
type Shape uint8

const (
	// ShapeDayBucket is a dates[] array of per-day metric rows
	ShapeDayBucket Shape = iota + 1
	// ShapePerQuery is a searches[] array of per-search-text rows
	ShapePerQuery
)

// Field describes one column of a stream's flattened record
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // string | integer | number | click_positions
	Optional bool   `json:"optional,omitempty"`
}

// Descriptor is the static definition of one analytics stream
type Descriptor struct {
	// Name is the stream identifier used in bookmarks and record output
	Name string
	// Path is the endpoint under the regional analytics host
	Path string
	// Shape picks the payload normalizer
	Shape Shape
	// ClickAnalytics marks streams whose click metrics are gated by the
	// include_click_analytics setting
	ClickAnalytics bool
	// Paginated marks streams that page with limit/offset
	Paginated bool
	// Limit is the page size for paginated streams
	Limit int
	// PrimaryKeys identify a record within the stream
	PrimaryKeys []string
	// Fields is the record schema (identifiers and window dates excluded)
	Fields []Field
}

const defaultPageLimit = 1000

// identity and window-date fields every record carries
var commonFields = []Field{
	{Name: "index_name", Type: "string"},
	{Name: "date", Type: "string"},
	{Name: "start_date", Type: "string"},
	{Name: "end_date", Type: "string"},
}

var catalog = []Descriptor{
	{
		Name:        "searches_count",
		Path:        "/2/searches/count",
		Shape:       ShapeDayBucket,
		PrimaryKeys: []string{"index_name", "date"},
		Fields: []Field{
			{Name: "count", Type: "integer"},
		},
	},
	{
		Name:        "users_count",
		Path:        "/2/users/count",
		Shape:       ShapeDayBucket,
		PrimaryKeys: []string{"index_name", "date"},
		Fields: []Field{
			{Name: "count", Type: "integer"},
		},
	},
	{
		Name:        "no_results_rate",
		Path:        "/2/searches/noResultRate",
		Shape:       ShapeDayBucket,
		PrimaryKeys: []string{"index_name", "date"},
		Fields: []Field{
			{Name: "count", Type: "integer"},
			{Name: "noResultCount", Type: "integer"},
			{Name: "rate", Type: "number"},
		},
	},
	{
		Name:        "no_click_rate",
		Path:        "/2/searches/noClickRate",
		Shape:       ShapeDayBucket,
		PrimaryKeys: []string{"index_name", "date"},
		Fields: []Field{
			{Name: "count", Type: "integer"},
			{Name: "noClickCount", Type: "integer"},
			{Name: "rate", Type: "number"},
		},
	},
	{
		Name:           "click_through_rate",
		Path:           "/2/clicks/clickThroughRate",
		Shape:          ShapeDayBucket,
		ClickAnalytics: true,
		PrimaryKeys:    []string{"index_name", "date"},
		Fields: []Field{
			{Name: "clickCount", Type: "integer"},
			{Name: "trackedSearchCount", Type: "integer"},
			{Name: "rate", Type: "number"},
		},
	},
	{
		Name:           "top_searches",
		Path:           "/2/searches",
		Shape:          ShapePerQuery,
		ClickAnalytics: true,
		Paginated:      true,
		Limit:          defaultPageLimit,
		PrimaryKeys:    []string{"index_name", "search", "date"},
		Fields: []Field{
			{Name: "search", Type: "string"},
			{Name: "count", Type: "integer"},
			{Name: "nbHits", Type: "integer", Optional: true},
			{Name: "trackedSearchCount", Type: "integer", Optional: true},
			{Name: "clickCount", Type: "integer", Optional: true},
			{Name: "clickThroughRate", Type: "number", Optional: true},
			{Name: "conversionCount", Type: "integer", Optional: true},
			{Name: "conversionRate", Type: "number", Optional: true},
			{Name: "averageClickPosition", Type: "number", Optional: true},
			{Name: "clickPositions", Type: "click_positions", Optional: true},
		},
	},
	{
		Name:        "no_results_searches",
		Path:        "/2/searches/noResults",
		Shape:       ShapePerQuery,
		Paginated:   true,
		Limit:       defaultPageLimit,
		PrimaryKeys: []string{"index_name", "search", "date"},
		Fields: []Field{
			{Name: "search", Type: "string"},
			{Name: "count", Type: "integer"},
			{Name: "withFilterCount", Type: "integer", Optional: true},
		},
	},
	{
		Name:        "no_clicks_searches",
		Path:        "/2/searches/noClicks",
		Shape:       ShapePerQuery,
		Paginated:   true,
		Limit:       defaultPageLimit,
		PrimaryKeys: []string{"index_name", "search", "date"},
		Fields: []Field{
			{Name: "search", Type: "string"},
			{Name: "count", Type: "integer"},
			{Name: "nbHits", Type: "integer", Optional: true},
		},
	},
}

// All returns the full stream catalog in extraction order
func All() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// ByName looks a stream up by its identifier
func ByName(name string) (Descriptor, error) {
	for _, d := range catalog {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, perr.NotFoundf("unknown stream %q", name)
}

// Schema returns the full record schema for a stream, common fields included
func (d Descriptor) Schema() []Field {
	out := make([]Field, 0, len(commonFields)+len(d.Fields))
	out = append(out, commonFields[0]) // index_name leads
	out = append(out, d.Fields...)
	out = append(out, commonFields[1:]...)
	return out
}
