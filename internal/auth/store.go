package auth

import "context"

// Store describes the persistence operations the auth subsystem
// consumes. All operations are atomic and immediately consistent;
// transactional guarantees live in the implementation.
type Store interface {
	UserStore
	RoleStore
	PermissionStore
	CandidateStore
	AuditStore
}

// UserStore manages identity records.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id int64) error
	FindUser(ctx context.Context, id int64) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindUserBySubjectID resolves a user by the immutable federated
	// subject identifier.
	FindUserBySubjectID(ctx context.Context, subjectID string) (*User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]*User, error)
}

// RoleStore manages roles and their permission grants.
type RoleStore interface {
	CreateRole(ctx context.Context, role *Role) error
	FindRole(ctx context.Context, id int64) (*Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	// Grant is idempotent: granting an existing (role, permission) pair
	// is a no-op.
	Grant(ctx context.Context, roleID, permissionID int64) error
	ListPermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error)
}

// PermissionStore manages the permission catalog.
type PermissionStore interface {
	CreatePermission(ctx context.Context, perm *Permission) error
	FindPermissionByName(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// CandidateStore manages candidate records.
type CandidateStore interface {
	CreateCandidate(ctx context.Context, c *Candidate) error
	UpdateCandidate(ctx context.Context, c *Candidate) error
	DeleteCandidate(ctx context.Context, id int64) error
	FindCandidate(ctx context.Context, id int64) (*Candidate, error)
	ListCandidates(ctx context.Context, offset, limit int) ([]*Candidate, error)
}

// AuditStore appends and reads the immutable audit log.
type AuditStore interface {
	CreateAuditLogEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditLogEntries(ctx context.Context, actorID int64, offset, limit int) ([]*AuditEntry, error)
}
