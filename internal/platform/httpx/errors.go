// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/binaragam/storefront/internal/apiclient"
)

// ErrNotFound marks a lookup that matched nothing.
var ErrNotFound = errors.New("resource not found")

// StatusFor maps handler and backend errors to the status the storefront
// answers with. Backend failures surface as 502 so they are not mistaken for
// our own faults.
func StatusFor(err error) int {
	var reqErr *apiclient.RequestError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound), apiclient.IsNotFound(err):
		return http.StatusNotFound
	case apiclient.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500:
		return http.StatusBadRequest
	case apiclient.IsTransport(err), errors.Is(err, apiclient.ErrMalformedResponse), errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	detail := ""
	if status < http.StatusInternalServerError {
		detail = err.Error()
	}
	Problem(w, status, http.StatusText(status), detail)
}
