package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession        = errors.New("no valid session")
	ErrInvalidRequest   = errors.New("invalid delete request")
	ErrInvalidIdentity  = errors.New("invalid operation identity")
	ErrTooManyInFlight  = errors.New("too many requests in flight")
	ErrCircuitOpen      = errors.New("remote service circuit is open")
	ErrInteractorClosed = errors.New("interactor is closed")
	ErrMissingFailure   = errors.New("failed result carries no error")
)

// DispatchError is returned synchronously when a remote call could not be started.
// It never travels through the event bus.
type DispatchError struct {
	Op  string
	Err error
}

func NewDispatchError(op string, err error) *DispatchError {
	return &DispatchError{Op: op, Err: err}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// RemoteErrorKind classifies a failure reported after a successful dispatch.
type RemoteErrorKind string

const (
	RemoteUnknown          RemoteErrorKind = "unknown"
	RemoteNotFound         RemoteErrorKind = "not_found"
	RemotePermissionDenied RemoteErrorKind = "permission_denied"
	RemoteNetwork          RemoteErrorKind = "network"
	RemoteServer           RemoteErrorKind = "server"
)

// RemoteError is the failure payload of a result event.
type RemoteError struct {
	Kind    RemoteErrorKind `json:"kind"`
	Message string          `json:"message"`
	Status  int             `json:"status,omitempty"`
}

func NewRemoteError(kind RemoteErrorKind, msg string) *RemoteError {
	return &RemoteError{Kind: kind, Message: msg}
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("remote %s: %s", e.Kind, e.Message)
}

// Is lets errors.Is match on kind, and on message too when the target sets one.
func (e *RemoteError) Is(target error) bool {
	t, ok := target.(*RemoteError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// AsRemoteError converts any error into a RemoteError, keeping typed ones as is.
func AsRemoteError(err error) *RemoteError {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &RemoteError{Kind: RemoteUnknown, Message: err.Error()}
}
