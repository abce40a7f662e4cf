package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse reports a success response whose body could not be parsed.
var ErrMalformedResponse = errors.New("apiclient: malformed response body")

// RequestError is returned when the backend answered with a non-2xx status.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("Request failed: %d", e.Status)
}

// TransportError is returned when no response was obtained at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from a RequestError, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the bearer credential.
func IsUnauthorized(err error) bool {
	status := StatusCode(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
