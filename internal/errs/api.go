package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindTransport is a network failure; no response was received.
	KindTransport Kind = iota
	// KindAuth is a 401; the session is torn down globally.
	KindAuth
	// KindValidation is a 4xx other than 401 carrying a business message.
	KindValidation
	// KindServer is a 5xx or any other unexpected status.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is a failed call to the backend.
type APIError struct {
	Kind    Kind
	Status  int    // 0 for transport failures
	Message string // server supplied message, may be empty
	Err     error  // underlying transport error, if any
}

// KindForStatus maps an HTTP status to the error taxonomy.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// NewStatusError builds an APIError from a non-2xx response.
func NewStatusError(status int, message string) *APIError {
	return &APIError{Kind: KindForStatus(status), Status: status, Message: message}
}

// NewTransportError wraps a network failure.
func NewTransportError(err error) *APIError {
	return &APIError{Kind: KindTransport, Err: err}
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindTransport:
		return fmt.Sprintf("transport: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("HTTP %d", e.Status)
	}
}

// Unwrap exposes the matching sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	if e.Kind == KindTransport {
		return e.Err
	}
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if e.Kind == KindValidation {
		return ErrValidation
	}
	return nil
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Message returns the server supplied message carried by err, or fallback.
func Message(err error, fallback string) string {
	if ae, ok := AsAPIError(err); ok && ae.Message != "" {
		return ae.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return fallback
}

// ValidationError is raised locally before a request is sent.
type ValidationError struct {
	Fields []string
	Msg    string
}

func (e *ValidationError) Error() string { return e.Msg }

// Unwrap lets errors.Is(err, ErrValidation) match local validation failures.
func (e *ValidationError) Unwrap() error { return ErrValidation }
