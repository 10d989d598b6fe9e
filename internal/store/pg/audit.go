package pg

import (
	"context"
	"time"

	"talentgate.org/internal/auth"
)

func (s *Store) CreateAuditLogEntry(ctx context.Context, entry *auth.AuditEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	return s.db.QueryRowContext(ctx, `
		insert into audit_log (actor_id, action, resource, detail, trace_id, occurred_at)
		values ($1, $2, $3, $4, $5, $6)
		returning id
	`, entry.ActorID, entry.Action, entry.Resource, entry.Detail, entry.TraceID, entry.OccurredAt).Scan(&entry.ID)
}

func (s *Store) ListAuditLogEntries(ctx context.Context, actorID int64, offset, limit int) ([]*auth.AuditEntry, error) {
	offset, limit = clampPage(offset, limit)
	rows, err := s.db.QueryContext(ctx, `
		select id, actor_id, action, resource, detail, trace_id, occurred_at
		from audit_log
		where ($1 = 0 or actor_id = $1)
		order by id desc
		offset $2 limit $3
	`, actorID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*auth.AuditEntry
	for rows.Next() {
		var e auth.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.Detail, &e.TraceID, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
