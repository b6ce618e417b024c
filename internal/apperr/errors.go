// Package apperr holds the error categories surfaced by a note run.
package apperr

import (
	"errors"
	"fmt"
)

// ErrPathCollisionDeclined is returned when the user chose not to create a
// new version of an existing note. Callers treat it as a silent abort.
var ErrPathCollisionDeclined = errors.New("new note version declined")

// ValidationError means the user has to correct the input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TranscodeError is scoped to a single input file.
type TranscodeError struct {
	Filename string
	Err      error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode %s: %v", e.Filename, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// AuthError is raised for a missing or rejected credential.
type AuthError struct {
	Backend string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	s := fmt.Sprintf("%s: %s", e.Backend, e.Message)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *AuthError) Unwrap() error { return e.Err }

// MissingCredential builds the AuthError used before any request is made.
func MissingCredential(backend string) *AuthError {
	return &AuthError{Backend: backend, Message: "API key is not set"}
}

// BackendError carries a non-success response from a remote backend.
// Status is 0 when no response was received.
type BackendError struct {
	Backend string
	Status  int
	Body    string
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Backend, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Backend, e.Body)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

type TemplateNotFoundError struct {
	Path string
	Err  error
}

func (e *TemplateNotFoundError) Error() string {
	if e.Path == "" {
		return "template path is not set"
	}
	return fmt.Sprintf("template file not found at %s", e.Path)
}

func (e *TemplateNotFoundError) Unwrap() error { return e.Err }

type EmptyGenerationError struct {
	Backend string
}

func (e *EmptyGenerationError) Error() string {
	return fmt.Sprintf("no content received from %s", e.Backend)
}

// StageError names the pipeline stage a failure happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the current run. Only transcode
// failures and a declined version prompt are not fatal.
func IsFatal(err error) bool {
	if err == nil || errors.Is(err, ErrPathCollisionDeclined) {
		return false
	}
	var te *TranscodeError
	return !errors.As(err, &te)
}
