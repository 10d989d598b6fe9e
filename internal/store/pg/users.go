package pg

import (
	"context"
	"database/sql"
	"errors"

	"talentgate.org/internal/auth"
)

const userColumns = `id, email, display_name, active, password_hash, federated, coalesce(subject_id, ''), raw_role, coalesce(role_id, 0), created_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Active, &u.PasswordHash, &u.Federated, &u.SubjectID, &u.RawRole, &u.RoleID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		insert into users (email, display_name, active, password_hash, federated, subject_id, raw_role, role_id)
		values ($1, $2, $3, $4, $5, $6, $7, nullif($8, 0))
		returning id, created_at
	`, u.Email, u.DisplayName, u.Active, u.PasswordHash, u.Federated, nullIfEmpty(u.SubjectID), u.RawRole, u.RoleID).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *auth.User) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set email = $2, display_name = $3, active = $4, password_hash = $5,
		    federated = $6, subject_id = $7, raw_role = $8, role_id = nullif($9, 0)
		where id = $1
	`, u.ID, u.Email, u.DisplayName, u.Active, u.PasswordHash, u.Federated, nullIfEmpty(u.SubjectID), u.RawRole, u.RoleID)
	if err != nil {
		return mapConstraintError(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, id int64) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email = $1`, email))
}

func (s *Store) FindUserBySubjectID(ctx context.Context, subjectID string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where subject_id = $1`, subjectID))
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]*auth.User, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+` from users order by id offset $1 limit $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
