// Package normalize flattens the two heterogeneous analytics payload shapes
// into a uniform record stream. Metric numbers are kept as fixed-precision
// decimals end to end so re-extracting a historical day reproduces the same
// bytes.
package normalize

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// ClickPosition is one bucket of the click-position breakdown attached to
// top_searches records: how many clicks landed in a result-position range.
type ClickPosition struct {
	Position   []int64 `json:"position"` // inclusive [first, last] result positions
	ClickCount int64   `json:"clickCount"`
}

// Record is one flattened output row. Every record carries its index, its
// per-day date, and the bounds of the source window for traceability.
// Fields holds the stream-specific metrics; a declared-but-absent metric is
// present with a nil value and serializes as null, never as zero.
type Record struct {
	IndexName string
	Date      string
	StartDate string
	EndDate   string
	Fields    map[string]any
}

// MarshalJSON flattens the record into a single JSON object. Identity fields
// come first, then metric fields in lexical order, then the window bounds.
// Decimals are written as bare fixed-precision numbers, not strings.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKey := func(k string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
	}

	writeKey("index_name")
	b, err := json.Marshal(r.IndexName)
	if err != nil {
		return nil, err
	}
	buf.Write(b)

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeKey(k)
		b, err := marshalValue(r.Fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}

	writeKey("date")
	buf.Write(quoted(r.Date))
	writeKey("start_date")
	buf.Write(quoted(r.StartDate))
	writeKey("end_date")
	buf.Write(quoted(r.EndDate))

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func quoted(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

// marshalValue renders decimals as bare numbers; everything else goes
// through encoding/json as usual
func marshalValue(v any) ([]byte, error) {
	if d, ok := v.(decimal.Decimal); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(v)
}
