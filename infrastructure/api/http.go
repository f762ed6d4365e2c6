// Package api holds the HTTP clients for the remote backend: the chat
// completion endpoint and the auth endpoints. Both ride the same
// *http.Client so the session cookie set at login is attached to every
// completion call.
package api

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// NewHTTPClient builds the shared client with a cookie jar and the
// transport-level timeout. The core defines no timeout of its own.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &http.Client{Timeout: timeout, Jar: jar}, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}
