// Package sink lands normalized records: newline-delimited JSON files for
// local pipelines and ClickHouse for warehouse-backed deployments
package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"algoliatap/internal/core/normalize"
	perr "algoliatap/internal/platform/errors"
)

// JSONLWriter appends one <stream>.jsonl file per stream under dir
type JSONLWriter struct {
	dir string

	mu   sync.Mutex
	outs map[string]*bufio.Writer
	fds  map[string]*os.File
}

// NewJSONL creates the output directory and the writer
func NewJSONL(dir string) (*JSONLWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "create output dir %s", dir)
	}
	return &JSONLWriter{
		dir:  dir,
		outs: map[string]*bufio.Writer{},
		fds:  map[string]*os.File{},
	}, nil
}

// Write implements domain.SinkPort
func (w *JSONLWriter) Write(_ context.Context, stream string, recs []normalize.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	out, err := w.streamWriterLocked(stream)
	if err != nil {
		return err
	}
	for _, r := range recs {
		b, err := json.Marshal(r)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "encode record for %s", stream)
		}
		if _, err := out.Write(append(b, '\n')); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "append %s.jsonl", stream)
		}
	}
	return out.Flush()
}

// Close implements domain.SinkPort
func (w *JSONLWriter) Close(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var first error
	for stream, out := range w.outs {
		if err := out.Flush(); err != nil && first == nil {
			first = perr.Wrapf(err, perr.ErrorCodeDB, "flush %s.jsonl", stream)
		}
	}
	for stream, fd := range w.fds {
		if err := fd.Close(); err != nil && first == nil {
			first = perr.Wrapf(err, perr.ErrorCodeDB, "close %s.jsonl", stream)
		}
	}
	w.outs = map[string]*bufio.Writer{}
	w.fds = map[string]*os.File{}
	return first
}

func (w *JSONLWriter) streamWriterLocked(stream string) (*bufio.Writer, error) {
	if out, ok := w.outs[stream]; ok {
		return out, nil
	}
	path := filepath.Join(w.dir, stream+".jsonl")
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open %s", path)
	}
	out := bufio.NewWriter(fd)
	w.fds[stream] = fd
	w.outs[stream] = out
	return out, nil
}
