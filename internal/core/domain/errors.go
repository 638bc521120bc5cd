package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMerchantNotFound indicates the merchant id is not known to the directory
	ErrMerchantNotFound = errors.New("merchant not found")

	// ErrNotConnected indicates the merchant has no stored connection
	ErrNotConnected = errors.New("not connected")

	// ErrStorage indicates a persistence read/write failure.
	// Kept distinct from ErrNotFound: a storage failure must never be
	// reported to callers as "not connected".
	ErrStorage = errors.New("storage failure")
)
