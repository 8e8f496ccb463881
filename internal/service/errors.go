package service

import "errors"

// Domain error sentinels. Handlers map these onto HTTP status codes; the
// services themselves never retry — retry policy belongs to the caller.
var (
	// ErrValidation marks caller mistakes: zero members, negative amounts,
	// missing accounts. Always surfaced synchronously.
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthorized marks permission failures, e.g. a non-admin deleting
	// a group. Fatal for the call.
	ErrNotAuthorized = errors.New("not authorized")
)
