package integrations

import "errors"

// Sentinel errors surfaced by the service. Handlers map these to HTTP
// status codes; anything else is an internal failure.
var (
	// ErrNotFound covers both a missing integration and one owned by a
	// different user. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("integration not found")

	// ErrDuplicate means the user already has an integration for the
	// requested platform.
	ErrDuplicate = errors.New("integration already exists for this platform")

	// ErrValidation means the request input was malformed or incomplete.
	ErrValidation = errors.New("invalid integration input")
)
