package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every token failure: malformed, expired, bad
	// signature.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrGoogleAuth covers every Google verification failure: bad signature,
	// wrong audience, expired, missing email claim.
	ErrGoogleAuth = errors.New("google authentication failed")

	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
)
