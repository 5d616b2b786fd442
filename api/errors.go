package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Error is a non-2xx response from the dashboard API. Detail carries the
// server's "detail" message when one was sent.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %s (status %d)", e.Detail, e.StatusCode)
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsCredential reports whether err is a 4xx rejection of submitted
// credentials or registration input. These are surfaced verbatim to the
// caller and never touch the stored session.
func IsCredential(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// IsServer reports whether err is a 5xx response. Server errors never
// trigger a token refresh.
func IsServer(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}

// IsTransient reports whether err is a retryable network failure: a timeout
// or a connection error, as opposed to a response the server actually sent.
// Context cancellation is deliberate and not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
