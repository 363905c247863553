package database

import (
	"context"
	"fmt"
	"time"
)

// AuditEvent is one recorded admin or service action.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordAudit appends an event to the audit trail.
func (db *DB) RecordAudit(ctx context.Context, event AuditEvent) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_events (actor, action, entity, entity_id, details)
		 VALUES (?, ?, ?, ?, ?)`,
		event.Actor, event.Action, event.Entity, event.EntityID, event.Details)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns events recorded inside [from, to), newest first.
func (db *DB) ListAuditEvents(ctx context.Context, from, to time.Time) ([]AuditEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, actor, action, entity, entity_id, details, created_at
		 FROM audit_events
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID,
			&e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
