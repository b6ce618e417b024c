package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStageErrorUnwrap(t *testing.T) {
	cause := &BackendError{Backend: "openai", Status: 500, Body: "boom"}
	err := fmt.Errorf("run: %w", &StageError{Stage: "synthesizing", Err: cause})

	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatal("expected BackendError in chain")
	}
	if be.Status != 500 {
		t.Errorf("status = %d", be.Status)
	}
	if !strings.Contains(err.Error(), "synthesizing") {
		t.Errorf("stage missing from %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"declined", fmt.Errorf("wrap: %w", ErrPathCollisionDeclined), false},
		{"transcode", &TranscodeError{Filename: "a.wav", Err: errors.New("bad")}, false},
		{"auth", MissingCredential("openai"), true},
		{"empty", &EmptyGenerationError{Backend: "openai"}, true},
		{"template", &TemplateNotFoundError{Path: "t.md"}, true},
	}
	for _, c := range cases {
		if got := IsFatal(c.err); got != c.want {
			t.Errorf("%s: IsFatal = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBackendErrorMessage(t *testing.T) {
	err := &BackendError{Backend: "anthropic", Err: errors.New("dial tcp: refused")}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = &BackendError{Backend: "openai", Status: 429, Body: "slow down"}
	if err.Error() != "openai error (HTTP 429): slow down" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestTranscodeErrorCarriesFilename(t *testing.T) {
	err := &TranscodeError{Filename: "2025-01-05_143000_000.wav", Err: errors.New("not a wav")}
	if !strings.Contains(err.Error(), "2025-01-05_143000_000.wav") {
		t.Errorf("filename missing from %q", err.Error())
	}
}
