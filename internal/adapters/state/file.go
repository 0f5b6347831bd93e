// Package state provides bookmark store implementations: a local JSON file
// for single-host runs and Postgres for shared deployments
package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/timeutil"
)

// fileFormat is the on-disk shape: bookmark keys map to ISO dates
type fileFormat struct {
	Bookmarks map[string]string `json:"bookmarks"`
}

// FileStore keeps bookmarks in a single JSON file. Every write lands via a
// temp file rename so a crash mid-write never truncates the state.
type FileStore struct {
	path string

	mu    sync.Mutex
	marks map[string]string
}

// NewFileStore opens (or initializes) the state file at path
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, marks: map[string]string{}}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "read state file %s", path)
	}
	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "parse state file %s", path)
	}
	if f.Bookmarks != nil {
		s.marks = f.Bookmarks
	}
	return s, nil
}

func bookmarkKey(stream, index string) string { return stream + "|" + index }

// Bookmark implements domain.StatePort
func (s *FileStore) Bookmark(_ context.Context, stream, index string) (timeutil.Date, bool, error) {
	s.mu.Lock()
	raw, ok := s.marks[bookmarkKey(stream, index)]
	s.mu.Unlock()
	if !ok {
		return timeutil.Date{}, false, nil
	}
	d, err := timeutil.ParseDate(raw)
	if err != nil {
		return timeutil.Date{}, false, perr.Wrapf(err, perr.ErrorCodeDB, "corrupt bookmark %s=%q", bookmarkKey(stream, index), raw)
	}
	return d, true, nil
}

// SetBookmark implements domain.StatePort; it never moves a mark backwards
func (s *FileStore) SetBookmark(_ context.Context, stream, index string, d timeutil.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bookmarkKey(stream, index)
	if raw, ok := s.marks[key]; ok {
		if cur, err := timeutil.ParseDate(raw); err == nil && !d.After(cur) {
			return nil
		}
	}
	s.marks[key] = d.String()
	return s.flushLocked()
}

// Close implements domain.StatePort
func (s *FileStore) Close(context.Context) error { return nil }

// flushLocked writes the whole map atomically; callers hold s.mu
func (s *FileStore) flushLocked() error {
	b, err := json.MarshalIndent(fileFormat{Bookmarks: s.marks}, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "encode state")
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "temp state file in %s", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeDB, "write state")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeDB, "close state")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeDB, "replace state file %s", s.path)
	}
	return nil
}
