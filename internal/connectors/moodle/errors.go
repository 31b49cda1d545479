package moodle

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Moodle error codes with special handling.
const (
	ErrorCodeInvalidToken      = "invalidtoken"
	ErrorCodeInvalidRecord     = "invalidrecord"
	ErrorCodeInvalidParameter  = "invalidparameter"
	ErrorCodeAccessException   = "accessexception"
	ErrorCodeRequireLogin      = "requireloginerror"
	ErrorCodeServicesNotEnable = "enablewsdescription"
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("moodle: HTTP error response: %d %s (URL: %s)", e.StatusCode, e.Status, e.URL)
}

// APIError is an error reported by the web service itself.
type APIError struct {
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
	Err       string `json:"error"`
	Exception string `json:"exception"`
	DebugInfo string `json:"debuginfo"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err
	}
	return fmt.Sprintf("moodle: %s: %s", e.ErrorCode, msg)
}

// ResponseError is a response that could not be interpreted.
type ResponseError struct {
	Message string
	URL     string
	Err     error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("moodle: invalid response: %s: %v (URL: %s)", e.Message, e.Err, e.URL)
	}
	return fmt.Sprintf("moodle: invalid response: %s (URL: %s)", e.Message, e.URL)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the site throttles requests.
type RateLimitError struct {
	RetryAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("moodle: rate limit exceeded, retry at %s", e.RetryAt.Format(time.RFC3339))
}

// IsInvalidToken checks if the error indicates an unusable token.
func IsInvalidToken(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == ErrorCodeInvalidToken
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotFound checks if the error indicates a missing record or file.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == ErrorCodeInvalidRecord
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// isTransient reports whether a request may succeed when retried.
func isTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return IsRateLimited(err)
}
