package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsUnwrapsWrappedError(t *testing.T) {
	base := New(http.StatusNotFound, "not_found", errors.New("lesson missing"))
	wrapped := fmt.Errorf("generate quiz: %w", base)

	ae, ok := As(wrapped)
	if !ok {
		t.Fatalf("As: expected ok")
	}
	if ae.Status != http.StatusNotFound || ae.Code != "not_found" {
		t.Fatalf("unexpected error: status=%d code=%q", ae.Status, ae.Code)
	}
	if ae.Error() != "lesson missing" {
		t.Fatalf("message: got=%q", ae.Error())
	}
}

func TestErrorFallbackMessages(t *testing.T) {
	if got := New(http.StatusBadGateway, "generation_failed", nil).Error(); got != "generation_failed" {
		t.Fatalf("code fallback: got=%q", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("status fallback: got=%q", got)
	}
}

func TestWithDetailsMerges(t *testing.T) {
	ae := New(http.StatusBadGateway, "generation_parse_failed", nil).
		WithDetails(map[string]any{"raw": "oops"}).
		WithDetails(map[string]any{"attempts": 1})
	if ae.Details["raw"] != "oops" || ae.Details["attempts"] != 1 {
		t.Fatalf("details: got=%v", ae.Details)
	}
}
