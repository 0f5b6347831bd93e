package algolia

import (
	"io"
	"net/http"
	"strconv"
)

// parseRetryAfter reads a delay-seconds Retry-After header; 0 when absent
// or unparseable (HTTP-date values are rare enough upstream to ignore)
func parseRetryAfter(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// drainAndClose empties and closes a response body so the transport can
// reuse the connection
func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 64<<10))
	return rc.Close()
}
