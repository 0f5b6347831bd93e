package normalize

import (
	"bytes"
	"encoding/json"

	"algoliatap/internal/core/streams"
	"algoliatap/internal/core/window"
	perr "algoliatap/internal/platform/errors"

	"github.com/shopspring/decimal"
)

// Records flattens one raw payload into the stream's record rows. The shape
// variant is selected by the descriptor, never by sniffing the payload.
// A payload that does not match the declared shape fails the whole window
// with a schema mismatch; nothing partial is returned.
func Records(d streams.Descriptor, index string, w window.Window, raw []byte) ([]Record, error) {
	rows, err := payloadRows(d, raw)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec := Record{
			IndexName: index,
			StartDate: w.Start.String(),
			EndDate:   w.End.String(),
			Fields:    make(map[string]any, len(d.Fields)),
		}

		switch d.Shape {
		case streams.ShapeDayBucket:
			// every day bucket carries its own date
			ds, ok := row["date"].(string)
			if !ok || ds == "" {
				return nil, perr.SchemaMismatchf("%s: dates[%d] has no date", d.Name, i)
			}
			rec.Date = ds
		case streams.ShapePerQuery:
			// per-query rows aggregate over the window; stamp the window's
			// last day as the record date (it is what the bookmark advances to)
			rec.Date = w.End.String()
		}

		for _, f := range d.Fields {
			v, present := row[f.Name]
			if !present || v == nil {
				// "no data" stays null; it is not the same thing as zero
				rec.Fields[f.Name] = nil
				continue
			}
			cv, err := coerce(f, v)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeSchemaMismatch, "%s: row %d field %s", d.Name, i, f.Name)
			}
			rec.Fields[f.Name] = cv
		}
		out = append(out, rec)
	}
	return out, nil
}

// payloadRows decodes the raw body and extracts the row array for the
// stream's shape. UseNumber keeps metric values as their exact decimal text.
func payloadRows(d streams.Descriptor, raw []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSchemaMismatch, "%s: payload is not a JSON object", d.Name)
	}

	key := "dates"
	if d.Shape == streams.ShapePerQuery {
		key = "searches"
	}

	arr, ok := body[key]
	if !ok {
		return nil, perr.SchemaMismatchf("%s: payload has no %q array", d.Name, key)
	}
	items, ok := arr.([]any)
	if !ok {
		return nil, perr.SchemaMismatchf("%s: %q is not an array", d.Name, key)
	}

	rows := make([]map[string]any, 0, len(items))
	for i, it := range items {
		row, ok := it.(map[string]any)
		if !ok {
			return nil, perr.SchemaMismatchf("%s: %s[%d] is not an object", d.Name, key, i)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// coerce converts a decoded JSON value into the field's declared type
func coerce(f streams.Field, v any) (any, error) {
	switch f.Type {
	case "string":
		s, ok := v.(string)
		if !ok {
			return nil, perr.SchemaMismatchf("want string, got %T", v)
		}
		return s, nil

	case "integer":
		n, ok := v.(json.Number)
		if !ok {
			return nil, perr.SchemaMismatchf("want number, got %T", v)
		}
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		// some counters arrive as "42.0"; keep them exact rather than reject
		return parseDecimal(n)

	case "number":
		n, ok := v.(json.Number)
		if !ok {
			return nil, perr.SchemaMismatchf("want number, got %T", v)
		}
		return parseDecimal(n)

	case "click_positions":
		items, ok := v.([]any)
		if !ok {
			return nil, perr.SchemaMismatchf("want array, got %T", v)
		}
		return clickPositions(items)

	default:
		return nil, perr.SchemaMismatchf("unknown field type %q", f.Type)
	}
}

func parseDecimal(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, perr.SchemaMismatchf("bad number %q", n.String())
	}
	return d, nil
}

func clickPositions(items []any) ([]ClickPosition, error) {
	out := make([]ClickPosition, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, perr.SchemaMismatchf("clickPositions[%d] is not an object", i)
		}
		var cp ClickPosition
		if pos, ok := m["position"].([]any); ok {
			for _, pv := range pos {
				n, ok := pv.(json.Number)
				if !ok {
					return nil, perr.SchemaMismatchf("clickPositions[%d].position has non-numeric bound", i)
				}
				b, err := n.Int64()
				if err != nil {
					return nil, perr.SchemaMismatchf("clickPositions[%d].position bound %q", i, n.String())
				}
				cp.Position = append(cp.Position, b)
			}
		}
		if cc, ok := m["clickCount"].(json.Number); ok {
			c, err := cc.Int64()
			if err != nil {
				return nil, perr.SchemaMismatchf("clickPositions[%d].clickCount %q", i, cc.String())
			}
			cp.ClickCount = c
		}
		out = append(out, cp)
	}
	return out, nil
}
