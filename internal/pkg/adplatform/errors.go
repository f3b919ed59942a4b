package adplatform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AuthError means the platform rejected the credential itself (expired,
// revoked, insufficient scope). The only way out is a user re-auth; callers
// must never retry these automatically.
type AuthError struct {
	Platform string
	Detail   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: credential rejected: %s", e.Platform, e.Detail)
}

// TransportError covers network failures, timeouts and 5xx responses. These
// are transient from the caller's point of view.
type TransportError struct {
	Platform string
	Detail   string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %s", e.Platform, e.Detail)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError covers 429-class responses. Retryable after backoff, with
// messaging distinct from auth failures.
type RateLimitError struct {
	Platform string
	Detail   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Platform, e.Detail)
}

// classifyStatus maps an HTTP response status to the error taxonomy. The
// detail string carries only the status code, never the response body, so
// submitted credentials can not leak into logs or messages.
func classifyStatus(platform string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Platform: platform, Detail: fmt.Sprintf("status=%d", status)}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Platform: platform, Detail: fmt.Sprintf("status=%d", status)}
	default:
		return &TransportError{Platform: platform, Detail: fmt.Sprintf("status=%d", status)}
	}
}

// classifyTransport wraps a request-level failure (DNS, refused connection,
// context deadline) as a TransportError.
func classifyTransport(platform string, err error) error {
	detail := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		detail = "timeout"
	}
	return &TransportError{Platform: platform, Detail: detail, Err: err}
}

// IsAuthError reports whether err is a credential rejection.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRateLimitError reports whether err is a 429-class rejection.
func IsRateLimitError(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

// IsTransportError reports whether err is a transient transport failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
