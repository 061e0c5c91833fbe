// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity does not exist on the server.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (missing, expired or revoked token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the session is valid but the role may not perform the call.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates a rejected payload, either locally or by the server (4xx).
	ErrValidation = errors.New("validation failed")

	// ErrNoSession indicates an operation that needs an authenticated session found none.
	ErrNoSession = errors.New("no session (login required)")

	// ErrNoRefreshToken indicates refresh was requested without a stored refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")
)
