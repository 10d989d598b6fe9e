package auth

import "time"

// User is an identity record. Exactly one of PasswordHash (non-empty)
// or Federated (true) describes how the user authenticates.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`

	PasswordHash string `json:"-"`
	Federated    bool   `json:"federated"`

	// SubjectID is the immutable identifier assigned by the identity
	// provider. Set once on first federated login, never changed.
	SubjectID string `json:"subject_id,omitempty"`
	// RawRole is the unmapped role claim as received from the provider.
	RawRole string `json:"raw_role,omitempty"`

	RoleID int64 `json:"role_id,omitempty"`
}

// Role groups permissions.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is an atomic capability. Name is a management label only;
// authorization decisions compare Resource and Action.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// RoleGrant links a role to a permission. At most one grant exists per
// (role, permission) pair; duplicate grant attempts are no-ops.
type RoleGrant struct {
	RoleID       int64 `json:"role_id"`
	PermissionID int64 `json:"permission_id"`
}

// AuditEntry is an append-only record of a security-relevant action.
type AuditEntry struct {
	ID         int64     `json:"id"`
	ActorID    int64     `json:"actor_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	Detail     string    `json:"detail,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Candidate is a recruitment record managed through the CRUD surface.
type Candidate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
