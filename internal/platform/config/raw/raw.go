// Package raw is the env reader used during bootstrap, before the logger
// exists. It must stay free of imports from the logger package
package raw

import (
	"os"
	"strings"
)

// Conf is a namespaced view over environment variables (e.g. "TAP_", "LOG_")
type Conf struct{ prefix string }

// New returns a root Conf with no prefix
func New() Conf { return Conf{} }

// Prefix returns a child Conf with an additional prefix, so
// New().Prefix("TAP_").Prefix("CLICKHOUSE_") reads TAP_CLICKHOUSE_* vars
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

// Get returns the trimmed env var, or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(c.key(key))); v != "" {
		return v
	}
	return def
}

// GetBool reads a bool-like env var; "1", "true" and "yes" are true,
// anything else false, blank falls back to def
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(c.key(key)))) {
	case "":
		return def
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetInt reads a non-negative integer env var; anything non-numeric
// (including a sign) falls back to def
func (c Conf) GetInt(key string, def int) int {
	s := strings.TrimSpace(os.Getenv(c.key(key)))
	if s == "" {
		return def
	}
	n := 0
	for _, ch := range []byte(s) {
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
