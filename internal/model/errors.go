package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoSession      = errors.New("no active checkout session")
)

// ValidationError is returned for 422 responses: the server rejected the
// request and reported per-field problems.
type ValidationError struct {
	Message     string
	FieldErrors []FieldError
}

// FieldError is one rejected field. Field is the dot-joined location path
// from the server's detail list (e.g. "line_items.0.quantity").
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NotFoundError is returned for 404 responses.
type NotFoundError struct {
	Message    string
	StatusCode int
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RequestError is returned for generic 400-class rejections.
type RequestError struct {
	Message    string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

// ProtocolError is the catch-all for other non-2xx responses.
// Carries the raw status and body so callers can inspect what the server sent.
type ProtocolError struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ucp: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "ucp: " + e.Message
}

// VersionError is returned when the agent's protocol version is newer than
// the merchant supports.
type VersionError struct {
	AgentVersion    string
	MerchantVersion string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("UCP version %s is not supported: merchant implements version %s",
		e.AgentVersion, e.MerchantVersion)
}

// StateError is a local precondition failure: an operation was invoked
// without the session state it requires. It never involves the network.
type StateError struct {
	Message string
	Err     error // optional sentinel, e.g. ErrNoSession
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// NewNoSessionError creates the StateError for operations needing an
// active checkout.
func NewNoSessionError() *StateError {
	return &StateError{
		Message: "no active checkout session",
		Err:     ErrNoSession,
	}
}
