package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"algoliatap/internal/core/normalize"
	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/store"
	"algoliatap/internal/platform/timeutil"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const defaultTable = "analytics_records"

// one wide table for every stream; the full record rides along as JSON so
// schema drift upstream never loses data
const recordsDDL = `
CREATE TABLE IF NOT EXISTS %s (
	stream     LowCardinality(String),
	index_name String,
	date       Date,
	start_date Date,
	end_date   Date,
	record     String,
	loaded_at  DateTime DEFAULT now()
)
ENGINE = MergeTree
ORDER BY (stream, index_name, date)`

// ClickHouseSink batches records into a single analytics table
type ClickHouseSink struct {
	conn  driver.Conn
	table string
}

// NewClickHouse opens the connection and ensures the target table exists
func NewClickHouse(ctx context.Context, cfg store.CHConfig, table string) (*ClickHouseSink, error) {
	if table == "" {
		table = defaultTable
	}
	conn, err := store.OpenCH(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, fmt.Sprintf(recordsDDL, table)); err != nil {
		_ = conn.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "create %s", table)
	}
	return &ClickHouseSink{conn: conn, table: table}, nil
}

// Write implements domain.SinkPort; one prepared batch per call
func (s *ClickHouseSink) Write(ctx context.Context, stream string, recs []normalize.Record) error {
	if len(recs) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "prepare batch for %s", stream)
	}

	now := time.Now().UTC()
	for _, r := range recs {
		payload, err := json.Marshal(r)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "encode record for %s", stream)
		}
		d, err := timeutil.ParseDate(r.Date)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeSchemaMismatch, "%s record date %q", stream, r.Date)
		}
		sd, err := timeutil.ParseDate(r.StartDate)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeSchemaMismatch, "%s record start_date %q", stream, r.StartDate)
		}
		ed, err := timeutil.ParseDate(r.EndDate)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeSchemaMismatch, "%s record end_date %q", stream, r.EndDate)
		}
		if err := batch.Append(
			stream,
			r.IndexName,
			d.Time(),
			sd.Time(),
			ed.Time(),
			string(payload),
			now,
		); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "append batch row for %s", stream)
		}
	}
	if err := batch.Send(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "send batch for %s", stream)
	}
	return nil
}

// Close implements domain.SinkPort
func (s *ClickHouseSink) Close(context.Context) error {
	return s.conn.Close()
}
