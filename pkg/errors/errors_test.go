package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrap(CodeConflict, cause, "stock exhausted")

	if err.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatalf("expected cause to survive wrapping")
	}
	if !IsCode(err, CodeConflict) {
		t.Fatal("IsCode should match the wrapped code")
	}
	if IsCode(err, CodeNotFound) {
		t.Fatal("IsCode matched the wrong code")
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeUnauthorized, "bad credentials")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Message() != "bad credentials" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestMetadataStatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeRateLimit:    http.StatusTooManyRequests,
		CodeDependency:   http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Fatalf("%s: expected %d, got %d", code, want, got)
		}
	}
}
