package errors

import (
	stderrs "errors"
	"testing"
)

func TestErrorTypeAndMethods(t *testing.T) {
	// nil *Error should render "<nil>"
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	// New / Newf
	e1 := New(ErrorCodeConfig, "bad settings")
	if CodeOf(e1) != ErrorCodeConfig {
		t.Fatalf("CodeOf(New) = %v", CodeOf(e1))
	}
	e2 := Newf(ErrorCodeSchemaMismatch, "bad payload %d", 12)
	if got := e2.Error(); got != "bad payload 12" {
		t.Fatalf("Newf().Error = %q", got)
	}

	// Wrap / Wrapf / Unwrap
	src := stderrs.New("root")
	e3 := Wrap(src, ErrorCodeDB, "db failed")
	if u := stderrs.Unwrap(e3); u == nil || u.Error() != "root" {
		t.Fatalf("Wrap did not keep orig")
	}
	if CodeOf(e3) != ErrorCodeDB {
		t.Fatalf("CodeOf(Wrap) = %v", CodeOf(e3))
	}
	e4 := Wrapf(src, ErrorCodeUnauthorized, "nope %s", "here")
	// Error() includes message + ": " + orig
	if want := "nope here: root"; e4.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e4.Error(), want)
	}

	// As
	if got, ok := As(e4); !ok || got.Code() != ErrorCodeUnauthorized {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	// WithField (copy-on-write) and WithOp
	e5 := Wrap(src, ErrorCodeInvalidArgument, "oops")
	e6 := WithField(e5, "start_date")
	e7 := WithOp(e6, "partition")
	if fe, ok := As(e6); !ok || fe.Field() != "start_date" {
		t.Fatalf("WithField failed")
	}
	if oe, ok := As(e7); !ok || oe.Op() != "partition" {
		t.Fatalf("WithOp failed")
	}
	// original unchanged
	if fe0, _ := As(e5); fe0.Field() != "" || fe0.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}

	// WithField/WithOp on foreign errors pass through untouched
	if got := WithField(src, "x"); got != src {
		t.Fatalf("WithField should be a no-op on foreign errors")
	}
	if got := WithOp(src, "x"); got != src {
		t.Fatalf("WithOp should be a no-op on foreign errors")
	}
}

func TestRootAndWrapIf(t *testing.T) {
	src := stderrs.New("deep")
	wrapped := Wrap(Wrap(src, ErrorCodeDB, "mid"), ErrorCodeUnknown, "outer")
	if Root(wrapped).Error() != "deep" {
		t.Fatalf("Root = %q, want deep", Root(wrapped).Error())
	}
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}
	if WrapIf(src, ErrorCodeDB, "x") == nil {
		t.Fatalf("WrapIf(err) should wrap")
	}
}

func TestSugarConstructors(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{Configf("c"), ErrorCodeConfig},
		{Unauthorizedf("u"), ErrorCodeUnauthorized},
		{TooManyRequestsf("r"), ErrorCodeTooManyRequests},
		{Unavailablef("t"), ErrorCodeUnavailable},
		{SchemaMismatchf("s"), ErrorCodeSchemaMismatch},
		{InvalidArgf("i"), ErrorCodeInvalidArgument},
		{NotFoundf("n"), ErrorCodeNotFound},
		{Exhaustedf("e"), ErrorCodeExhausted},
		{DBf("d"), ErrorCodeDB},
		{Internalf("x"), ErrorCodeUnknown},
	}
	for _, c := range cases {
		if CodeOf(c.err) != c.code {
			t.Fatalf("CodeOf(%v) = %v, want %v", c.err, CodeOf(c.err), c.code)
		}
	}
}

func TestRetryableByCode(t *testing.T) {
	if !Retryable(TooManyRequestsf("429")) {
		t.Fatalf("rate limited must be retryable")
	}
	if !Retryable(Unavailablef("503")) {
		t.Fatalf("unavailable must be retryable")
	}
	if Retryable(Unauthorizedf("401")) {
		t.Fatalf("auth failures must not be retryable")
	}
	if Retryable(Configf("bad")) {
		t.Fatalf("config errors must not be retryable")
	}
	if Retryable(SchemaMismatchf("shape")) {
		t.Fatalf("schema mismatch must not be retryable")
	}
	if Retryable(nil) {
		t.Fatalf("nil must not be retryable")
	}
}
