package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/regent/internal/ports/secondary"
)

// FocusRepository implements secondary.FocusRepository with SQLite.
type FocusRepository struct {
	db *sql.DB
}

// NewFocusRepository creates a new SQLite focus repository.
func NewFocusRepository(db *sql.DB) *FocusRepository {
	return &FocusRepository{db: db}
}

// Lock upserts the focus pointer for an authority address. A conflicting lock
// is replaced, never rejected: the authority has moved on.
func (r *FocusRepository) Lock(ctx context.Context, authorityAddr, tenantID, escalationID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO focus_states (authority_addr, tenant_id, escalation_id, last_interaction_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(authority_addr) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			escalation_id = excluded.escalation_id,
			last_interaction_at = CURRENT_TIMESTAMP`,
		authorityAddr, tenantID, escalationID)
	if err != nil {
		return fmt.Errorf("failed to lock focus: %w", err)
	}
	return nil
}

// Unlock clears the lock for an address. Unlocking twice is a no-op.
func (r *FocusRepository) Unlock(ctx context.Context, authorityAddr string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE focus_states SET escalation_id = NULL, last_interaction_at = CURRENT_TIMESTAMP
		WHERE authority_addr = ?`,
		authorityAddr)
	if err != nil {
		return fmt.Errorf("failed to unlock focus: %w", err)
	}
	return nil
}

// Get returns the focus record for an address.
func (r *FocusRepository) Get(ctx context.Context, authorityAddr string) (*secondary.FocusRecord, error) {
	var (
		record       secondary.FocusRecord
		escalationID sql.NullString
		lastAt       time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT authority_addr, tenant_id, escalation_id, last_interaction_at
		FROM focus_states WHERE authority_addr = ?`,
		authorityAddr).Scan(&record.AuthorityAddr, &record.TenantID, &escalationID, &lastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("focus for %s: %w", authorityAddr, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get focus: %w", err)
	}
	record.EscalationID = escalationID.String
	record.LastInteractionAt = lastAt.Format(time.RFC3339)
	return &record, nil
}

// NextPending returns the single highest-priority pending escalation for a
// tenant, excluding the given ID.
func (r *FocusRepository) NextPending(ctx context.Context, tenantID, excludeID string) (*secondary.EscalationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations
		WHERE tenant_id = ? AND state IN ('paused', 'awaiting_clarification') AND id != ?`+pendingOrder+` LIMIT 1`,
		tenantID, excludeID)
	record, err := scanEscalation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no pending escalation: %w", secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next pending escalation: %w", err)
	}
	return record, nil
}

// Ensure FocusRepository implements the interface
var _ secondary.FocusRepository = (*FocusRepository)(nil)
