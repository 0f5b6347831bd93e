package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"algoliatap/internal/platform/timeutil"
)

func date(t *testing.T, s string) timeutil.Date {
	t.Helper()
	d, err := timeutil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, ok, err := s.Bookmark(context.Background(), "searches_count", "idx")
	if err != nil {
		t.Fatalf("Bookmark: %v", err)
	}
	if ok {
		t.Fatalf("empty store should have no bookmarks")
	}
}

func TestFileStore_RoundTripSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.SetBookmark(ctx, "searches_count", "products", date(t, "2024-01-30")); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}
	if err := s.SetBookmark(ctx, "top_searches", "products", date(t, "2024-02-10")); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}

	// a fresh process sees what the last one persisted
	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d, ok, err := s2.Bookmark(ctx, "searches_count", "products")
	if err != nil || !ok || !d.Equal(date(t, "2024-01-30")) {
		t.Fatalf("bookmark = %v ok=%v err=%v", d, ok, err)
	}
	d, ok, _ = s2.Bookmark(ctx, "top_searches", "products")
	if !ok || !d.Equal(date(t, "2024-02-10")) {
		t.Fatalf("bookmark = %v ok=%v", d, ok)
	}
}

func TestFileStore_NeverMovesBackwards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ctx := context.Background()

	s, _ := NewFileStore(path)
	_ = s.SetBookmark(ctx, "s", "i", date(t, "2024-02-28"))
	if err := s.SetBookmark(ctx, "s", "i", date(t, "2024-01-01")); err != nil {
		t.Fatalf("SetBookmark earlier: %v", err)
	}
	d, _, _ := s.Bookmark(ctx, "s", "i")
	if !d.Equal(date(t, "2024-02-28")) {
		t.Fatalf("bookmark regressed to %v", d)
	}
}

func TestFileStore_OnDiskShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, _ := NewFileStore(path)
	_ = s.SetBookmark(context.Background(), "users_count", "myindex", date(t, "2024-03-05"))

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f fileFormat
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if f.Bookmarks["users_count|myindex"] != "2024-03-05" {
		t.Fatalf("bookmarks = %v", f.Bookmarks)
	}
}

func TestFileStore_CorruptStateFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatalf("corrupt state must not open silently")
	}
}
