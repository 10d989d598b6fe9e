package auth

import (
	"context"
	"errors"
	"fmt"
)

// Resource and action labels checked by the evaluator.
const (
	ResourceUsers      = "users"
	ResourceRoles      = "roles"
	ResourceSystem     = "system"
	ResourceDocuments  = "documents"
	ResourceCandidates = "candidates"
	ResourceAudit      = "audit"
	ResourcePII        = "pii"

	ActionManage = "manage"
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// BuiltinPermissions is the permission catalog installed at seed time.
var BuiltinPermissions = []Permission{
	{Name: "manage_users", Description: "Create, update, delete users", Resource: ResourceUsers, Action: ActionManage},
	{Name: "view_users", Description: "View user information", Resource: ResourceUsers, Action: ActionRead},

	{Name: "manage_roles", Description: "Create, update, delete roles", Resource: ResourceRoles, Action: ActionManage},
	{Name: "view_roles", Description: "View roles", Resource: ResourceRoles, Action: ActionRead},

	{Name: "manage_system", Description: "Manage system settings", Resource: ResourceSystem, Action: ActionManage},

	{Name: "upload_documents", Description: "Upload documents", Resource: ResourceDocuments, Action: ActionCreate},
	{Name: "view_documents", Description: "View documents", Resource: ResourceDocuments, Action: ActionRead},
	{Name: "edit_documents", Description: "Edit documents", Resource: ResourceDocuments, Action: ActionUpdate},
	{Name: "delete_documents", Description: "Delete documents", Resource: ResourceDocuments, Action: ActionDelete},

	{Name: "create_candidates", Description: "Create new candidates", Resource: ResourceCandidates, Action: ActionCreate},
	{Name: "view_candidates", Description: "View candidate information", Resource: ResourceCandidates, Action: ActionRead},
	{Name: "update_candidates", Description: "Update candidate information", Resource: ResourceCandidates, Action: ActionUpdate},
	{Name: "delete_candidates", Description: "Delete candidates", Resource: ResourceCandidates, Action: ActionDelete},

	{Name: "view_audit_logs", Description: "View audit logs", Resource: ResourceAudit, Action: ActionRead},
	{Name: "view_pii", Description: "View personally identifiable information", Resource: ResourcePII, Action: ActionRead},
}

// BuiltinRoles maps role names to the permission names they hold.
var BuiltinRoles = []struct {
	Name        string
	Description string
	Permissions []string
}{
	{
		Name:        "Super Admin",
		Description: "Full access to everything",
		Permissions: []string{
			"manage_users", "view_users", "manage_roles", "view_roles",
			"manage_system", "upload_documents", "view_documents",
			"edit_documents", "delete_documents", "create_candidates",
			"view_candidates", "update_candidates", "delete_candidates",
			"view_audit_logs", "view_pii",
		},
	},
	{
		Name:        "HR Manager",
		Description: "Full control over recruitment data, cannot change system settings",
		Permissions: []string{
			"view_users", "upload_documents", "view_documents",
			"edit_documents", "delete_documents", "create_candidates",
			"view_candidates", "update_candidates", "delete_candidates",
			"view_pii",
		},
	},
	{
		Name:        "Hiring Manager",
		Description: "Reviews candidates and documents for own openings",
		Permissions: []string{
			"view_documents", "view_candidates", "update_candidates", "view_pii",
		},
	},
	{
		Name:        "Recruiter",
		Description: "Can upload, view and edit recruitment data",
		Permissions: []string{
			"upload_documents", "view_documents", "edit_documents",
			"create_candidates", "view_candidates", "update_candidates",
			"view_pii",
		},
	},
	{
		Name:        "HR Intern",
		Description: "Limited access, no PII",
		Permissions: []string{
			"upload_documents", "view_documents",
			"create_candidates", "view_candidates",
		},
	},
	{
		Name:        "Sourcer",
		Description: "Limited access, no PII",
		Permissions: []string{
			"upload_documents", "view_documents",
			"create_candidates", "view_candidates",
		},
	},
}

// Seed installs the builtin permission catalog and roles. It is
// idempotent: existing permissions, roles and grants are left as-is.
func Seed(ctx context.Context, store Store) error {
	permsByName := make(map[string]int64, len(BuiltinPermissions))
	for _, p := range BuiltinPermissions {
		existing, err := store.FindPermissionByName(ctx, p.Name)
		switch {
		case err == nil:
			permsByName[p.Name] = existing.ID
			continue
		case errors.Is(err, ErrNotFound):
		default:
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		perm := p
		if err := store.CreatePermission(ctx, &perm); err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
		permsByName[p.Name] = perm.ID
	}

	for _, r := range BuiltinRoles {
		role, err := store.FindRoleByName(ctx, r.Name)
		if errors.Is(err, ErrNotFound) {
			role = &Role{Name: r.Name, Description: r.Description}
			if err := store.CreateRole(ctx, role); err != nil {
				return fmt.Errorf("seed role %s: %w", r.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
		for _, permName := range r.Permissions {
			permID, ok := permsByName[permName]
			if !ok {
				return fmt.Errorf("seed role %s: unknown permission %s", r.Name, permName)
			}
			if err := store.Grant(ctx, role.ID, permID); err != nil {
				return fmt.Errorf("seed role %s: grant %s: %w", r.Name, permName, err)
			}
		}
	}
	return nil
}
