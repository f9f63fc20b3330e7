package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username not available, please choose another one")
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrNonceMissing    = errors.New("login nonce is missing or was already used")
	ErrStateMismatch   = errors.New("login state does not match")
	ErrTokenExchange   = errors.New("could not exchange authorization code")
	ErrInvalidToken    = errors.New("identity token is invalid")
	ErrMissingEmail    = errors.New("identity provider did not return an email")
	ErrUnverifiedEmail = errors.New("email address is not verified by the identity provider")
)
