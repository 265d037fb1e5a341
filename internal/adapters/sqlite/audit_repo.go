package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/regent/internal/ports/secondary"
)

// AuditRepository implements secondary.AuditSink with SQLite.
// Events are written best-effort; the services that emit them never let an
// audit failure block a state transition.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists one audit event.
func (r *AuditRepository) Record(ctx context.Context, event secondary.AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (tenant_id, escalation_id, event_type, detail) VALUES (?, ?, ?, ?)`,
		event.TenantID, nullable(event.EscalationID), event.EventType, nullable(event.Detail))
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// ListByEscalation returns all events for one escalation, oldest first.
func (r *AuditRepository) ListByEscalation(ctx context.Context, escalationID string) ([]*secondary.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tenant_id, escalation_id, event_type, detail FROM audit_events
		WHERE escalation_id = ? ORDER BY id ASC`,
		escalationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.AuditEvent
	for rows.Next() {
		var (
			event  secondary.AuditEvent
			escID  sql.NullString
			detail sql.NullString
		)
		if err := rows.Scan(&event.TenantID, &escID, &event.EventType, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.EscalationID = escID.String
		event.Detail = detail.String
		events = append(events, &event)
	}
	return events, rows.Err()
}

// Ensure AuditRepository implements the interface
var _ secondary.AuditSink = (*AuditRepository)(nil)
