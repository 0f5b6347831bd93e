package config

import (
	"testing"
	"time"

	kit "algoliatap/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	tap := root.Prefix("TAP_")
	if got := tap.key("REGION"); got != "TAP_REGION" {
		t.Fatalf("key() = %q, want %q", got, "TAP_REGION")
	}
	// nested prefix
	tapLog := tap.Prefix("LOG_")
	if got := tapLog.key("LEVEL"); got != "TAP_LOG_LEVEL" {
		t.Fatalf("nested key() = %q, want %q", got, "TAP_LOG_LEVEL")
	}
}

// Must* panics

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  algoliatap ")
	got := c.MustString("NAME")
	if got != "algoliatap" {
		t.Fatalf("MustString = %q, want %q", got, "algoliatap")
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustInt(t *testing.T) {
	c := New().Prefix("SVC_")
	t.Setenv("SVC_WORKERS", "  8 ")
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d, want %d", got, 8)
	}
	kit.MustPanic(t, func() { _ = c.MustInt("MISSING") })
	t.Setenv("SVC_BAD", "x")
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
}

func TestRequire(t *testing.T) {
	c := New().Prefix("REQ_")
	t.Setenv("REQ_A", "1")
	t.Setenv("REQ_B", "2")
	c.Require("A", "B")
	kit.MustPanic(t, func() { c.Require("A", "MISSING") })
}

// May* fallbacks

func TestMayString(t *testing.T) {
	c := New().Prefix("MS_")
	t.Setenv("MS_SET", " value ")
	if got := c.MayString("SET", "def"); got != "value" {
		t.Fatalf("MayString = %q, want %q", got, "value")
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q, want %q", got, "def")
	}
}

func TestMayInt(t *testing.T) {
	c := New().Prefix("MI_")
	t.Setenv("MI_OK", "12")
	t.Setenv("MI_BAD", "12x")
	if got := c.MayInt("OK", 1); got != 12 {
		t.Fatalf("MayInt = %d, want 12", got)
	}
	if got := c.MayInt("BAD", 7); got != 7 {
		t.Fatalf("MayInt invalid = %d, want 7", got)
	}
	if got := c.MayInt("MISSING", 3); got != 3 {
		t.Fatalf("MayInt missing = %d, want 3", got)
	}
}

func TestMayBool(t *testing.T) {
	c := New().Prefix("MB_")
	t.Setenv("MB_ON", "true")
	t.Setenv("MB_BAD", "maybe")
	if !c.MayBool("ON", false) {
		t.Fatalf("MayBool true expected")
	}
	if c.MayBool("BAD", false) {
		t.Fatalf("MayBool invalid should use default false")
	}
	if !c.MayBool("MISSING", true) {
		t.Fatalf("MayBool missing should use default true")
	}
}

func TestMayDuration(t *testing.T) {
	c := New().Prefix("MD_")
	t.Setenv("MD_OK", "750ms")
	t.Setenv("MD_BAD", "soon")
	if got := c.MayDuration("OK", time.Second); got != 750*time.Millisecond {
		t.Fatalf("MayDuration = %v, want 750ms", got)
	}
	if got := c.MayDuration("BAD", 2*time.Second); got != 2*time.Second {
		t.Fatalf("MayDuration invalid = %v, want 2s", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CSV_")
	t.Setenv("CSV_LIST", " products , blog ,, staging ")
	t.Setenv("CSV_EMPTY", " , , ")
	got := c.MayCSV("LIST", nil)
	want := []string{"products", "blog", "staging"}
	if len(got) != len(want) {
		t.Fatalf("MayCSV = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MayCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := c.MayCSV("EMPTY", []string{"def"}); len(got) != 1 || got[0] != "def" {
		t.Fatalf("MayCSV all-empty should fall back to default, got %v", got)
	}
	if got := c.MayCSV("MISSING", []string{"a"}); len(got) != 1 || got[0] != "a" {
		t.Fatalf("MayCSV missing should use default, got %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("EN_")
	t.Setenv("EN_REGION", "EU")
	if got := c.MayEnum("REGION", "us", "us", "eu"); got != "EU" {
		t.Fatalf("MayEnum = %q, want %q (case-insensitive match keeps value)", got, "EU")
	}
	if got := c.MayEnum("MISSING", "us", "us", "eu"); got != "us" {
		t.Fatalf("MayEnum missing = %q, want default", got)
	}
	t.Setenv("EN_BAD", "apac")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "us", "us", "eu") })
}
