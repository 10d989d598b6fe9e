package pg

import (
	"context"
	"database/sql"
	"errors"

	"talentgate.org/internal/auth"
)

func scanRole(row interface{ Scan(...any) error }) (*auth.Role, error) {
	var (
		role auth.Role
		desc sql.NullString
	)
	err := row.Scan(&role.ID, &role.Name, &desc, &role.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		role.Description = desc.String
	}
	return &role, nil
}

func (s *Store) CreateRole(ctx context.Context, role *auth.Role) error {
	err := s.db.QueryRowContext(ctx, `
		insert into roles (name, description)
		values ($1, $2)
		returning id, created_at
	`, role.Name, nullIfEmpty(role.Description)).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (s *Store) FindRole(ctx context.Context, id int64) (*auth.Role, error) {
	return scanRole(s.db.QueryRowContext(ctx, `
		select id, name, description, created_at from roles where id = $1
	`, id))
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (*auth.Role, error) {
	return scanRole(s.db.QueryRowContext(ctx, `
		select id, name, description, created_at from roles where name = $1
	`, name))
}

func (s *Store) ListRoles(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, created_at from roles order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) Grant(ctx context.Context, roleID, permissionID int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into role_permissions (role_id, permission_id)
		values ($1, $2)
		on conflict do nothing
	`, roleID, permissionID)
	return mapConstraintError(err)
}

func (s *Store) ListPermissionsForRole(ctx context.Context, roleID int64) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.id, p.name, p.description, p.resource, p.action
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1
		order by p.id
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func scanPermission(row interface{ Scan(...any) error }) (*auth.Permission, error) {
	var (
		perm auth.Permission
		desc sql.NullString
	)
	err := row.Scan(&perm.ID, &perm.Name, &desc, &perm.Resource, &perm.Action)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		perm.Description = desc.String
	}
	return &perm, nil
}

func collectPermissions(rows *sql.Rows) ([]auth.Permission, error) {
	var perms []auth.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *Store) CreatePermission(ctx context.Context, perm *auth.Permission) error {
	err := s.db.QueryRowContext(ctx, `
		insert into permissions (name, description, resource, action)
		values ($1, $2, $3, $4)
		returning id
	`, perm.Name, nullIfEmpty(perm.Description), perm.Resource, perm.Action).Scan(&perm.ID)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (s *Store) FindPermissionByName(ctx context.Context, name string) (*auth.Permission, error) {
	return scanPermission(s.db.QueryRowContext(ctx, `
		select id, name, description, resource, action from permissions where name = $1
	`, name))
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, resource, action from permissions order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}
