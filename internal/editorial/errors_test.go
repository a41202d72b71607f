package editorial

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKeepsCauseReachable(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Wrap(KindUpstream, "fetch problem page", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if !IsKind(err, KindUpstream) {
		t.Fatalf("expected kind %q, got %v", KindUpstream, err)
	}
	if IsKind(err, KindExtraction) {
		t.Fatalf("kind check matched the wrong kind")
	}
}

func TestIsKindSeesThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := E(KindTutorialNotFound, "no materials link")
	outer := fmt.Errorf("step failed: %w", inner)

	if !IsKind(outer, KindTutorialNotFound) {
		t.Fatalf("IsKind should unwrap fmt.Errorf chains")
	}

	de, ok := AsError(outer)
	if !ok || de.Kind != KindTutorialNotFound {
		t.Fatalf("AsError should recover the domain error, got %v %v", de, ok)
	}
}

func TestErrorStringForms(t *testing.T) {
	t.Parallel()

	if got := E(KindInvalidInput, "not a problem url").Error(); got != "invalid_input: not a problem url" {
		t.Fatalf("unexpected message: %q", got)
	}

	wrapped := Wrap(KindCache, "flush", errors.New("redis down"))
	if got := wrapped.Error(); got != "cache: flush: redis down" {
		t.Fatalf("unexpected message: %q", got)
	}
}
