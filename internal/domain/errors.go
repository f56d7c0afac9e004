package domain

import (
	"errors"
)

var (
	// ErrInvalidParameter signals local validation failure; no request is sent.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrMalformedResponse signals an engine response the adapter cannot reconcile.
	ErrMalformedResponse = errors.New("malformed engine response")
	// ErrRemoteFailure signals an ok:false envelope or a transport failure.
	ErrRemoteFailure = errors.New("remote failure")
	// ErrNotFound signals a missing resource (no result to export, unknown index kind).
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedFile signals an upload that is not a CSV file.
	ErrUnsupportedFile = errors.New("unsupported file")
)

// RemoteError carries the engine's error message verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return ErrRemoteFailure }

// NewRemoteError creates a remote failure with the message the engine sent.
func NewRemoteError(message string) error {
	return &RemoteError{Message: message}
}

// RemoteMessage returns the verbatim engine message when err wraps a RemoteError.
func RemoteMessage(err error) (string, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message, true
	}
	return "", false
}
