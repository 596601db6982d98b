package authservice

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrNotAdmin is returned when a Discord account is not on the admin allowlist.
	ErrNotAdmin = errors.New("account is not an administrator")

	// ErrLoginFailed is returned when Discord rejects the authorization code.
	ErrLoginFailed = errors.New("discord login failed")

	// ErrGenerateToken is returned when token generation fails.
	ErrGenerateToken = errors.New("failed to generate token")
)
