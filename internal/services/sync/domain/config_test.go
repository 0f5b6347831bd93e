package domain

import (
	"os"
	"path/filepath"
	"testing"

	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/timeutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"]
	}`)
	c, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Region != "us" {
		t.Fatalf("region = %q, want us", c.Region)
	}
	if c.WindowDays != 30 {
		t.Fatalf("window = %d, want 30", c.WindowDays)
	}
	if !c.IncludeClickAnalytics() {
		t.Fatalf("click analytics should default on")
	}
	if c.Workers != 1 {
		t.Fatalf("workers = %d, want 1", c.Workers)
	}
	if len(c.Streams) != 8 {
		t.Fatalf("default streams = %d, want the full catalog", len(c.Streams))
	}
}

func TestLoadConfig_MissingCredentials(t *testing.T) {
	p := writeConfig(t, `{"indices": ["products"]}`)
	_, err := LoadConfig(p)
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("err = %v, want Config", err)
	}
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"],
		"widnow_days": 10
	}`)
	if _, err := LoadConfig(p); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("typoed key should fail config parse, got %v", err)
	}
}

func TestLoadConfig_UnknownStream(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"],
		"streams": ["searches_count", "nope"]
	}`)
	err := func() error { _, e := LoadConfig(p); return e }()
	if !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("err = %v, want Config", err)
	}
	if e, ok := perr.As(err); !ok || e.Field() != "streams" {
		t.Fatalf("field = %v", err)
	}
}

func TestLoadConfig_InvertedRange(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"],
		"start_date": "2024-02-01",
		"end_date": "2024-01-01"
	}`)
	if _, err := LoadConfig(p); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("inverted range should fail, got %v", err)
	}
}

func TestLoadConfig_WindowOutOfRange(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"],
		"date_window_size": 45
	}`)
	if _, err := LoadConfig(p); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("oversized window should fail validation, got %v", err)
	}
}

func TestLoadConfig_BadRegion(t *testing.T) {
	p := writeConfig(t, `{
		"application_id": "APP",
		"api_key": "KEY",
		"indices": ["products"],
		"region": "apac"
	}`)
	if _, err := LoadConfig(p); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("unsupported region should fail, got %v", err)
	}
}

func TestBounds_Defaults(t *testing.T) {
	today, err := timeutil.ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var c Config
	start, end, err := c.Bounds(today)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if !end.Equal(today) {
		t.Fatalf("end = %v, want today", end)
	}
	if !start.Equal(today.AddDays(-30)) {
		t.Fatalf("start = %v, want 30 days back", start)
	}
}

func TestBounds_Explicit(t *testing.T) {
	today, _ := timeutil.ParseDate("2024-06-15")
	c := Config{StartDate: "2024-01-01", EndDate: "2024-02-15"}
	start, end, err := c.Bounds(today)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if start.String() != "2024-01-01" || end.String() != "2024-02-15" {
		t.Fatalf("bounds = %v..%v", start, end)
	}
}
