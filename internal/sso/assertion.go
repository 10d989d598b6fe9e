// Package sso processes federated identity assertions: verifying them
// against the trusted identity provider and reconciling the asserted
// identity with the local user store.
package sso

import (
	"context"
	"errors"
)

var (
	// ErrInvalidAssertion marks a per-request failure: bad signature,
	// unexpected issuer, or missing mandatory claims.
	ErrInvalidAssertion = errors.New("sso: invalid assertion")

	// ErrMissingDefaultRole is a deployment-configuration fault: the
	// configured fallback role does not exist in the role store. It
	// breaks federated login for every user, not just one, and must be
	// surfaced as an operational incident.
	ErrMissingDefaultRole = errors.New("sso: default role missing from store")
)

// Assertion is a signature-verified identity statement from the
// identity provider. SubjectID and Email are mandatory.
type Assertion struct {
	// SubjectID is the provider-assigned immutable identifier.
	SubjectID   string
	Email       string
	DisplayName string
	// RawRole is the role claim exactly as asserted, before mapping.
	RawRole string
}

// Verifier validates an inbound provider response and extracts the
// claim set. Implementations own signature and issuer verification;
// the reconciler never sees unverified data.
type Verifier interface {
	// Begin starts a login round-trip, returning the provider redirect
	// URL plus the state and nonce the callback must present.
	Begin(ctx context.Context) (authURL, state, nonce string, err error)
	// Exchange turns a callback authorization code into a verified
	// Assertion, checking the nonce binding.
	Exchange(ctx context.Context, code, nonce string) (Assertion, error)
}
