package auth

import "context"

// Evaluator decides allow/deny for (resource, action) pairs by walking
// the user's role grants. Grants are read fresh on every call so role
// and permission edits take effect on the next check.
type Evaluator struct {
	store RoleStore
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(store RoleStore) *Evaluator {
	return &Evaluator{store: store}
}

// Authorize returns true iff the user's role holds a grant whose
// permission matches the requested pair exactly. Matching is
// case-sensitive on both fields; there are no wildcards and no
// hierarchy. A user without a role is always denied. Active status is
// the caller's concern and checked before authorization.
func (e *Evaluator) Authorize(ctx context.Context, user *User, resource, action string) (bool, error) {
	if user == nil || user.RoleID == 0 {
		return false, nil
	}
	perms, err := e.store.ListPermissionsForRole(ctx, user.RoleID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p.Resource == resource && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}
