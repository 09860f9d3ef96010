package fetchkit

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure scenarios
var (
	// ErrNoSerializer is returned when no serializer in the chain recognizes a value.
	ErrNoSerializer = errors.New("fetchkit: no serializer found")

	// ErrUnsupportedArrayFormat is returned when an unknown array format
	// reaches encode time.
	ErrUnsupportedArrayFormat = errors.New("fetchkit: unsupported array format")

	// ErrMissingPathParam is returned when a required :name placeholder has no
	// matching parameter.
	ErrMissingPathParam = errors.New("fetchkit: missing required path parameter")

	// ErrInvalidConfig is returned by ValidateConfiguration when the Fetcher
	// configuration is inconsistent.
	ErrInvalidConfig = errors.New("fetchkit: invalid configuration")
)

// ErrorClass partitions HTTP errors by who is at fault.
type ErrorClass string

const (
	// ClassClient covers every non-2xx status up to and including 500.
	ClassClient ErrorClass = "CLIENT"
	// ClassServer covers status codes strictly above 500.
	ClassServer ErrorClass = "SERVER"
)

// HTTPError represents a non-2xx response. Body holds the raw response text
// (empty string if absent). Class is ClassServer only for status codes
// strictly above 500; status 500 itself classifies as ClassClient. Callers
// rely on that boundary, so it must not be moved to >= 500.
type HTTPError struct {
	StatusCode int
	Body       string
	Class      ErrorClass
	// Header carries the response headers so error handlers can inspect
	// fields like Retry-After.
	Header http.Header
}

// NewHTTPError builds an HTTPError and derives its class from the status code.
func NewHTTPError(statusCode int, body string) *HTTPError {
	class := ClassClient
	if statusCode > 500 {
		class = ClassServer
	}
	return &HTTPError{StatusCode: statusCode, Body: body, Class: class}
}

// Error implements error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body != "" {
		return fmt.Sprintf("fetchkit: %s error: status %d: %s", e.Class, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("fetchkit: %s error: status %d", e.Class, e.StatusCode)
}

// Is compares error classes for errors.Is.
func (e *HTTPError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*HTTPError); ok {
		return e.Class == targetErr.Class && (targetErr.StatusCode == 0 || e.StatusCode == targetErr.StatusCode)
	}
	return false
}

// IsServerError reports whether err is an HTTPError classified as ClassServer.
func IsServerError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Class == ClassServer
}

// IsClientError reports whether err is an HTTPError classified as ClassClient.
func IsClientError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Class == ClassClient
}
