package token

import "errors"

// Verification failures, in the order Verify checks for them.
var (
	// ErrMissing indicates no token was supplied or it is not a well-formed JWT.
	ErrMissing = errors.New("token is missing or malformed")

	// ErrInvalid indicates the signature, algorithm or claims did not verify.
	ErrInvalid = errors.New("token is invalid")

	// ErrExpired indicates a correctly signed token past its expiry.
	ErrExpired = errors.New("token has expired")
)
