package app_errors

import (
	"errors"
	"fmt"
)

var ErrInvalidSelection = errors.New("invalid selection")
var ErrValidation = errors.New("validation failed")
var ErrConfirmationRequired = errors.New("delete requires confirmation")
var ErrLessonNotFound = errors.New("lesson not found")
var ErrSessionNotFound = errors.New("edit session not found")
var ErrSessionClosed = errors.New("edit session is closed")
var ErrBusy = errors.New("save already in progress")
var ErrUploadsPending = errors.New("uploads are still in progress")
var ErrAlreadyUploading = errors.New("upload of this kind is already in progress")
var ErrCancelled = errors.New("upload cancelled")
var ErrUnknownMediaKind = errors.New("unknown media kind")
var ErrTransport = errors.New("backend unavailable")
var ErrUnauthorized = errors.New("invalid access token")
var ErrTokenExpired = errors.New("token expired")

// ValidationError reports a field rejected before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransportError wraps a failure reported by the storage backend.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Transport wraps err as a TransportError unless it is nil or already
// classified as not-found.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrLessonNotFound) || errors.Is(err, ErrTransport) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
