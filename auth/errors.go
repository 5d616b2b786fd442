package auth

import "errors"

var (
	// ErrNoSession is returned when an operation needs a stored session and
	// none exists.
	ErrNoSession = errors.New("no session")

	// ErrSessionExpired is returned when the refresh token itself was
	// rejected. The session has already been torn down when this surfaces.
	ErrSessionExpired = errors.New("session expired")

	// ErrDisposed is returned by operations on a disposed manager.
	ErrDisposed = errors.New("session manager disposed")
)
