package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/adviser/internal/client"
)

// Sentinel errors returned by the controllers.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthorized indicates the backend rejected the credentials or the
	// bearer token (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedResponse indicates a response body that could not be decoded.
	// It is a kind of request failure reported with a generic message.
	ErrMalformedResponse = client.ErrMalformedResponse

	// ErrBusy indicates a signup or login is already outstanding.
	ErrBusy = errors.New("authentication already in progress")

	// ErrAskInFlight indicates a question is already awaiting its answer.
	ErrAskInFlight = errors.New("question already in flight")

	// ErrPersistedStateCorrupt marks persisted values that failed to parse.
	// Controllers recover from it by treating the value as absent; it is only logged.
	ErrPersistedStateCorrupt = errors.New("persisted state corrupt")
)

// Field names an input of the authentication surface.
type Field string

// Authentication inputs.
const (
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
)

// ValidationError reports required fields that were empty after trimming.
type ValidationError struct {
	Fields []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return "missing required fields: " + strings.Join(names, ", ")
}

// RequestFailedError is a non-success response other than 401.
type RequestFailedError struct {
	Status int
	Detail string
}

func (e *RequestFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("request failed: HTTP %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("request failed: HTTP %d", e.Status)
}

// IsRequestFailed reports whether err is a RequestFailedError or a malformed response.
func IsRequestFailed(err error) bool {
	var rf *RequestFailedError
	return errors.As(err, &rf) || errors.Is(err, ErrMalformedResponse)
}
