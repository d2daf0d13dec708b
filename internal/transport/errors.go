package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the transport client.
var (
	// ErrNotFound indicates the remote resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or rejected credentials.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrRateLimited indicates the remote API refused the request due to rate limits.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetworkError indicates a connectivity problem.
	ErrNetworkError = errors.New("network error")

	// ErrUnavailable indicates the circuit breaker for the host is open.
	ErrUnavailable = errors.New("service temporarily unavailable")

	// ErrInvalidResponse indicates a response body that could not be interpreted.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError represents a non-success HTTP status that has no dedicated sentinel.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// checkStatus maps an HTTP status to an error, or nil for 2xx responses.
func checkStatus(resp *http.Response, url string, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    snippet(body, 200),
		}
	}
}

// snippet returns at most n bytes of body for error messages.
func snippet(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
