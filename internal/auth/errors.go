package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must not distinguish the two to avoid account enumeration.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrWrongAuthMethod marks a password attempt against a federated-only
	// account (or the reverse). Collapsed into ErrInvalidCredentials at the
	// HTTP boundary.
	ErrWrongAuthMethod = errors.New("auth: wrong authentication method")

	ErrAccountInactive  = errors.New("auth: account inactive")
	ErrPermissionDenied = errors.New("auth: permission denied")

	// Token rejection reasons. All three mean "unauthenticated" to the
	// caller; the distinction exists for observability.
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenSignature = errors.New("auth: token signature invalid")
	ErrTokenMalformed = errors.New("auth: token malformed")
)
