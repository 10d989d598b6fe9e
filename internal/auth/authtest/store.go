// Package authtest provides an in-memory auth.Store for tests.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"talentgate.org/internal/auth"
)

// Store is a thread-safe in-memory implementation of auth.Store. It
// mirrors the relational store's uniqueness constraints on user email,
// federated subject id, role name and permission name.
type Store struct {
	mu         sync.Mutex
	users      map[int64]*auth.User
	roles      map[int64]*auth.Role
	perms      map[int64]*auth.Permission
	grants     map[int64][]int64
	candidates map[int64]*auth.Candidate
	audit      []*auth.AuditEntry
	nextID     int64

	// CreateUserHook, when set, runs before each CreateUser. Tests use
	// it to interleave a concurrent insert.
	CreateUserHook func()
}

var _ auth.Store = (*Store)(nil)

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:      map[int64]*auth.User{},
		roles:      map[int64]*auth.Role{},
		perms:      map[int64]*auth.Permission{},
		grants:     map[int64][]int64{},
		candidates: map[int64]*auth.Candidate{},
	}
}

func (s *Store) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(_ context.Context, u *auth.User) error {
	if s.CreateUserHook != nil {
		hook := s.CreateUserHook
		s.CreateUserHook = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrConflict
		}
		if u.SubjectID != "" && existing.SubjectID == u.SubjectID {
			return auth.ErrConflict
		}
	}
	u.ID = s.nextSeq()
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return auth.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) FindUser(_ context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) FindUserBySubjectID(_ context.Context, subjectID string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.SubjectID != "" && u.SubjectID == subjectID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, _, _ int) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) CreateRole(_ context.Context, role *auth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return auth.ErrConflict
		}
	}
	role.ID = s.nextSeq()
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *Store) FindRole(_ context.Context, id int64) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) FindRoleByName(_ context.Context, name string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) ListRoles(_ context.Context) ([]*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.Role, 0, len(s.roles))
	for _, r := range s.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Grant(_ context.Context, roleID, permissionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.grants[roleID] {
		if id == permissionID {
			return nil
		}
	}
	s.grants[roleID] = append(s.grants[roleID], permissionID)
	return nil
}

func (s *Store) ListPermissionsForRole(_ context.Context, roleID int64) ([]auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Permission
	for _, id := range s.grants[roleID] {
		if p, ok := s.perms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Store) CreatePermission(_ context.Context, perm *auth.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.perms {
		if existing.Name == perm.Name {
			return auth.ErrConflict
		}
	}
	perm.ID = s.nextSeq()
	cp := *perm
	s.perms[perm.ID] = &cp
	return nil
}

func (s *Store) FindPermissionByName(_ context.Context, name string) (*auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.perms {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) ListPermissions(_ context.Context) ([]auth.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) CreateCandidate(_ context.Context, c *auth.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextSeq()
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.candidates[c.ID] = &cp
	return nil
}

func (s *Store) UpdateCandidate(_ context.Context, c *auth.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; !ok {
		return auth.ErrNotFound
	}
	cp := *c
	s.candidates[c.ID] = &cp
	return nil
}

func (s *Store) DeleteCandidate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.candidates, id)
	return nil
}

func (s *Store) FindCandidate(_ context.Context, id int64) (*auth.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCandidates(_ context.Context, _, _ int) ([]*auth.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) CreateAuditLogEntry(_ context.Context, entry *auth.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextSeq()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	cp := *entry
	s.audit = append(s.audit, &cp)
	return nil
}

func (s *Store) ListAuditLogEntries(_ context.Context, actorID int64, _, _ int) ([]*auth.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.AuditEntry
	for _, e := range s.audit {
		if actorID != 0 && e.ActorID != actorID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// AuditEntries returns a snapshot of the appended audit log.
func (s *Store) AuditEntries() []*auth.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*auth.AuditEntry, 0, len(s.audit))
	for _, e := range s.audit {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// AddUser inserts a user, hashing the password when one is given.
func (s *Store) AddUser(email, password string, roleID int64, federated bool) *auth.User {
	u := &auth.User{
		Email:       email,
		DisplayName: strings.Split(email, "@")[0],
		Active:      true,
		RoleID:      roleID,
		Federated:   federated,
	}
	if password != "" {
		hash, err := auth.HashPassword(password, 4)
		if err != nil {
			panic(err)
		}
		u.PasswordHash = hash
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
