package auth

import (
	"context"
	"errors"
	"strings"
)

// Authenticator verifies password credentials against the user store.
// It performs no side effects; the caller records audit outcomes.
type Authenticator struct {
	store UserStore
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(store UserStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate looks up the user by exact email and verifies the
// password. Failures return ErrWrongAuthMethod for federated-only
// accounts and ErrInvalidCredentials otherwise; the boundary collapses
// both into a generic "authentication failed" response.
//
// The federated-only check runs before any password comparison, so a
// federated account never reaches bcrypt regardless of the supplied
// password. The not-found and bad-password paths are not
// timing-equalized. TODO: hash a dummy digest on the not-found path so
// both failures cost one bcrypt comparison.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Federated || user.PasswordHash == "" {
		return nil, ErrWrongAuthMethod
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
