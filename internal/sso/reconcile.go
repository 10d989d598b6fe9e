package sso

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talentgate.org/internal/auth"
)

// Reconciler maps a verified assertion onto the local user store:
// create, update, or reject.
type Reconciler struct {
	store auth.Store
	// roleMapping translates external role claims (lower-cased) to
	// internal role names.
	roleMapping map[string]string
	defaultRole string
}

// NewReconciler validates and normalizes the mapping table. The
// default role name must be set; its presence in the store is checked
// per reconcile so role edits take effect without a restart.
func NewReconciler(store auth.Store, roleMapping map[string]string, defaultRole string) (*Reconciler, error) {
	defaultRole = strings.TrimSpace(defaultRole)
	if defaultRole == "" {
		return nil, errors.New("default role name is required")
	}
	normalized := make(map[string]string, len(roleMapping))
	for external, internal := range roleMapping {
		external = strings.ToLower(strings.TrimSpace(external))
		internal = strings.TrimSpace(internal)
		if external == "" || internal == "" {
			continue
		}
		normalized[external] = internal
	}
	return &Reconciler{store: store, roleMapping: normalized, defaultRole: defaultRole}, nil
}

// Reconcile resolves the assertion to exactly one local user.
//
// Lookup is two-tier: the immutable subject id first, then email as a
// one-time upgrade path for accounts that predate federation. Once a
// subject id is recorded, later logins match on it exclusively; an
// email match that already carries a different subject id is rejected
// rather than silently re-linked.
//
// A successful reconcile always leaves the account active: the
// identity provider asserting the login implies current authorization.
func (r *Reconciler) Reconcile(ctx context.Context, assertion Assertion) (*auth.User, error) {
	if assertion.SubjectID == "" || assertion.Email == "" {
		return nil, fmt.Errorf("%w: mandatory claims absent", ErrInvalidAssertion)
	}

	role, err := r.resolveRole(ctx, assertion.RawRole)
	if err != nil {
		return nil, err
	}

	user, err := r.store.FindUserBySubjectID(ctx, assertion.SubjectID)
	if errors.Is(err, auth.ErrNotFound) {
		user, err = r.store.FindUserByEmail(ctx, assertion.Email)
		if err == nil && user.SubjectID != "" && user.SubjectID != assertion.SubjectID {
			// Same email, different federated identity. Linking here
			// would hand the account to whoever controls the new
			// subject id, so require an admin to resolve it.
			return nil, fmt.Errorf("%w: email already linked to another federated identity", ErrInvalidAssertion)
		}
	}
	switch {
	case err == nil:
		r.applyAssertion(user, assertion, role)
		if err := r.store.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case errors.Is(err, auth.ErrNotFound):
		created := &auth.User{Email: assertion.Email}
		r.applyAssertion(created, assertion, role)
		err := r.store.CreateUser(ctx, created)
		if errors.Is(err, auth.ErrConflict) {
			// A concurrent first login for the same subject id won the
			// insert; the unique constraint guarantees at most one row.
			// Re-fetch and update instead.
			existing, ferr := r.store.FindUserBySubjectID(ctx, assertion.SubjectID)
			if ferr != nil {
				return nil, ferr
			}
			r.applyAssertion(existing, assertion, role)
			if uerr := r.store.UpdateUser(ctx, existing); uerr != nil {
				return nil, uerr
			}
			return existing, nil
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	default:
		return nil, err
	}
}

// resolveRole maps the raw external role claim to a local role. An
// absent or unmapped claim, or a mapped name missing from the store,
// falls back to the configured default role. A missing default role is
// a configuration fault, not a per-user failure.
func (r *Reconciler) resolveRole(ctx context.Context, rawRole string) (*auth.Role, error) {
	name, ok := r.roleMapping[strings.ToLower(strings.TrimSpace(rawRole))]
	if ok {
		role, err := r.store.FindRoleByName(ctx, name)
		if err == nil {
			return role, nil
		}
		if !errors.Is(err, auth.ErrNotFound) {
			return nil, err
		}
	}
	role, err := r.store.FindRoleByName(ctx, r.defaultRole)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrMissingDefaultRole, r.defaultRole)
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *Reconciler) applyAssertion(user *auth.User, assertion Assertion, role *auth.Role) {
	if assertion.DisplayName != "" {
		user.DisplayName = assertion.DisplayName
	} else if user.DisplayName == "" {
		user.DisplayName = strings.Split(assertion.Email, "@")[0]
	}
	user.Federated = true
	user.SubjectID = assertion.SubjectID
	user.RawRole = assertion.RawRole
	user.RoleID = role.ID
	user.Active = true
}
