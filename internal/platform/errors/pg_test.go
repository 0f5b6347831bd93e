package errors

import (
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "pg " + code}
}

func TestExtractPgErrorAndIsSQLState(t *testing.T) {
	e := Wrap(pgErr(pgErrUniqueViolation), ErrorCodeDB, "save bookmark")
	if got, ok := ExtractPgError(e); !ok || got.Code != pgErrUniqueViolation {
		t.Fatalf("ExtractPgError failed: %v %v", got, ok)
	}
	if !IsSQLState(e, pgErrUniqueViolation) {
		t.Fatalf("IsSQLState should match through wrapping")
	}
	if IsSQLState(stderrs.New("plain"), pgErrUniqueViolation) {
		t.Fatalf("IsSQLState should be false for non-pg errors")
	}
}

func TestDBErrorCodeMapping(t *testing.T) {
	cases := []struct {
		state string
		want  ErrorCode
	}{
		{pgErrNotNullViolation, ErrorCodeInvalidArgument},
		{pgErrCheckViolation, ErrorCodeInvalidArgument},
		{pgErrInvalidTextRepresentation, ErrorCodeInvalidArgument},
		{pgErrSerializationFailure, ErrorCodeDB},
		{pgErrDeadlockDetected, ErrorCodeDB},
		{pgErrCannotConnectNow, ErrorCodeUnavailable},
		{"99999", ErrorCodeDB}, // default branch
	}
	for _, c := range cases {
		code, ok := DBErrorCode(pgErr(c.state))
		if !ok || code != c.want {
			t.Fatalf("DBErrorCode(%s) = %v/%v, want %v", c.state, code, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("not pg")); ok {
		t.Fatalf("DBErrorCode should report !ok for foreign errors")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("FromPostgres(nil) should be nil")
	}
	e := FromPostgres(pgErr(pgErrCannotConnectNow), "connect")
	if CodeOf(e) != ErrorCodeUnavailable {
		t.Fatalf("FromPostgres code = %v, want Unavailable", CodeOf(e))
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(pgErr(pgErrSerializationFailure)) {
		t.Fatalf("serialization failure should be retryable")
	}
	if !IsRetryable(pgErr(pgErrDeadlockDetected)) {
		t.Fatalf("deadlock should be retryable")
	}
	if IsRetryable(pgErr(pgErrNotNullViolation)) {
		t.Fatalf("constraint violations should not be retryable")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should be retryable")
	}
	if IsRetryable(stderrs.New("syntax error")) {
		t.Fatalf("arbitrary errors should not be retryable")
	}
	if IsRetryable(nil) {
		t.Fatalf("nil should not be retryable")
	}
}
