package pg

import (
	"context"
	"database/sql"
	"errors"

	"talentgate.org/internal/auth"
)

func scanCandidate(row interface{ Scan(...any) error }) (*auth.Candidate, error) {
	var c auth.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCandidate(ctx context.Context, c *auth.Candidate) error {
	err := s.db.QueryRowContext(ctx, `
		insert into candidates (name, email, created_by)
		values ($1, $2, $3)
		returning id, created_at, updated_at
	`, c.Name, c.Email, c.CreatedBy).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapConstraintError(err)
	}
	return nil
}

func (s *Store) UpdateCandidate(ctx context.Context, c *auth.Candidate) error {
	res, err := s.db.ExecContext(ctx, `
		update candidates set name = $2, email = $3, updated_at = now() where id = $1
	`, c.ID, c.Name, c.Email)
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

func (s *Store) DeleteCandidate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from candidates where id = $1`, id)
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

func (s *Store) FindCandidate(ctx context.Context, id int64) (*auth.Candidate, error) {
	return scanCandidate(s.db.QueryRowContext(ctx, `
		select id, name, email, created_by, created_at, updated_at from candidates where id = $1
	`, id))
}

func (s *Store) ListCandidates(ctx context.Context, offset, limit int) ([]*auth.Candidate, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := s.db.QueryContext(ctx, `
		select id, name, email, created_by, created_at, updated_at
		from candidates order by id offset $1 limit $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*auth.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
