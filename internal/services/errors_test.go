package services_test

import (
	"errors"
	"strings"
	"testing"

	"roastreel/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := services.Wrap(services.ErrJobExecutionFailed, "videogen", "poll job", "remote failure", cause)
	if !errors.Is(err, services.ErrJobExecutionFailed) {
		t.Fatalf("expected marker to survive wrapping, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping, got %v", err)
	}
	msg := services.Message(err)
	for _, want := range []string{"videogen", "poll job", "remote failure", "quota exceeded"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNoSelection, "pipeline", "export", "", nil)
	if !errors.Is(err, services.ErrNoSelection) {
		t.Fatalf("expected marker, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsToValidation(t *testing.T) {
	err := services.Wrap(nil, "pipeline", "export", "bad request", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker fallback, got %v", err)
	}
}
