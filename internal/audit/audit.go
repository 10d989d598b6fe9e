// Package audit records who did what to which resource. Every entry is
// persisted, mirrored to the JSON log, and pushed to live subscribers.
package audit

import (
	"context"
	"strings"
	"time"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/obs"
	"talentgate.org/internal/stream"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so audit
// entries can be correlated with the HTTP access log.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Recorder persists audit entries and fans them out to the live stream.
type Recorder struct {
	store  auth.AuditStore
	stream *stream.Stream
}

// NewRecorder wires a recorder to its store. The stream is optional.
func NewRecorder(store auth.AuditStore, s *stream.Stream) *Recorder {
	return &Recorder{store: store, stream: s}
}

// Record appends one audit entry. Actor and trace id come from the
// request context. A storage failure is logged but never propagated;
// the guarded operation has already happened.
func (r *Recorder) Record(ctx context.Context, action, resource, detail string) {
	entry := auth.AuditEntry{
		Action:     action,
		Resource:   resource,
		Detail:     detail,
		TraceID:    RequestIDFromContext(ctx),
		OccurredAt: time.Now().UTC(),
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		entry.ActorID = user.ID
	}

	if err := r.store.CreateAuditLogEntry(ctx, &entry); err != nil {
		obs.LogRequest(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "audit write failed",
			"error": err.Error(),
		})
	}

	line := map[string]any{
		"ts":       entry.OccurredAt.Format(time.RFC3339Nano),
		"type":     "audit",
		"action":   entry.Action,
		"resource": entry.Resource,
	}
	if entry.ActorID != 0 {
		line["actor_id"] = entry.ActorID
	}
	if entry.TraceID != "" {
		line["request_id"] = entry.TraceID
	}
	if entry.Detail != "" {
		line["detail"] = entry.Detail
	}
	obs.LogRequest(line)

	if r.stream != nil {
		r.stream.Publish(entry)
	}
}
