package testkit

import "testing"

func TestMustPanic(t *testing.T) {
	t.Parallel()

	MustPanic(t, func() {
		panic("nil port")
	})
}

func TestMustContain(t *testing.T) {
	t.Parallel()

	line := `{"level":"info","stream":"searches_count","msg":"window checkpointed"}`
	MustContain(t, line, `"stream":"searches_count"`)
}
