package api

import "errors"

// The three outcome classes every remote call collapses into. Callers decide
// what to do with credentials based on which class they see:
//
//   - ErrInvalidCredentials: login rejected; surface to the user, touch nothing.
//   - ErrUnauthorized: the token itself was rejected; credentials are dead.
//   - ErrUnavailable: connectivity/timeout/server trouble; credentials are
//     presumed fine and must be preserved.
//
// Only explicit 401/403 responses map to ErrUnauthorized. Everything else,
// including non-auth HTTP errors, is ErrUnavailable, so a flaky network never
// silently logs a user out.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("server unavailable")
)
