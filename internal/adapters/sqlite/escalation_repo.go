// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/regent/internal/models"
	"github.com/example/regent/internal/ports/secondary"
)

const escalationColumns = `id, tenant_id, origin_agent, type, priority, state,
	requester_addr, requester_name, requester_role, session_ref, message_ref,
	reason, needed, context_json, summary, decision, instruction, resolved_by,
	resolved_at, resumed_at, resume_marker, failure_reason, created_at, updated_at,
	(SELECT COUNT(*) FROM escalation_rounds r WHERE r.escalation_id = escalations.id)`

// pendingOrder sorts by priority rank then age. The CASE keeps unknown
// priorities last without failing the query.
const pendingOrder = ` ORDER BY CASE priority
	WHEN 'CRITICAL' THEN 0
	WHEN 'HIGH' THEN 1
	WHEN 'MEDIUM' THEN 2
	WHEN 'LOW' THEN 3
	ELSE 4 END, created_at ASC, id ASC`

// EscalationRepository implements secondary.EscalationRepository with SQLite.
type EscalationRepository struct {
	db *sql.DB
}

// NewEscalationRepository creates a new SQLite escalation repository.
func NewEscalationRepository(db *sql.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// Create persists a new escalation.
func (r *EscalationRepository) Create(ctx context.Context, record *secondary.EscalationRecord) error {
	contextJSON := record.ContextJSON
	if contextJSON == "" {
		contextJSON = "{}"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO escalations (id, tenant_id, origin_agent, type, priority, state,
			requester_addr, requester_name, requester_role, session_ref, message_ref,
			reason, needed, context_json, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.TenantID,
		record.OriginAgent,
		record.Type,
		string(record.Priority),
		string(record.State),
		nullable(record.RequesterAddr),
		nullable(record.RequesterName),
		nullable(record.RequesterRole),
		nullable(record.SessionRef),
		nullable(record.MessageRef),
		record.Reason,
		record.Needed,
		contextJSON,
		nullable(record.Summary),
	)
	if err != nil {
		return fmt.Errorf("failed to create escalation: %w", err)
	}

	return nil
}

// GetByID retrieves an escalation by its ID without a tenant check.
func (r *EscalationRepository) GetByID(ctx context.Context, id string) (*secondary.EscalationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE id = ?`, id)
	record, err := scanEscalation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	return record, nil
}

// GetByIDForTenant retrieves an escalation only if it belongs to the tenant.
// A wrong tenant is indistinguishable from a missing ID.
func (r *EscalationRepository) GetByIDForTenant(ctx context.Context, id, tenantID string) (*secondary.EscalationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE id = ? AND tenant_id = ?`, id, tenantID)
	record, err := scanEscalation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	return record, nil
}

// ListPending returns pending escalations for a tenant, highest priority
// first, oldest first within a priority.
func (r *EscalationRepository) ListPending(ctx context.Context, tenantID string) ([]*secondary.EscalationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations
		WHERE tenant_id = ? AND state IN ('paused', 'awaiting_clarification')`+pendingOrder,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending escalations: %w", err)
	}
	defer rows.Close()

	var records []*secondary.EscalationRecord
	for rows.Next() {
		record, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AppendRound atomically appends a round and applies the implied escalation
// update. The round number is assigned here, under the transaction, so
// concurrent authority replies cannot race to the same number.
func (r *EscalationRepository) AppendRound(ctx context.Context, ap secondary.RoundAppend) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM escalations WHERE id = ?`, ap.EscalationID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("escalation %s: %w", ap.EscalationID, secondary.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read escalation state: %w", err)
	}
	if models.State(state).IsTerminal() {
		return 0, fmt.Errorf("escalation %s is %s: %w", ap.EscalationID, state, secondary.ErrTerminalState)
	}

	var roundNumber int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round_number), 0) + 1 FROM escalation_rounds WHERE escalation_id = ?`,
		ap.EscalationID).Scan(&roundNumber)
	if err != nil {
		return 0, fmt.Errorf("failed to assign round number: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO escalation_rounds (escalation_id, round_number, type, request_text, response_text)
		VALUES (?, ?, ?, ?, ?)`,
		ap.EscalationID, roundNumber, string(ap.Type), nullable(ap.RequestText), nullable(ap.ResponseText))
	if err != nil {
		return 0, fmt.Errorf("failed to insert round: %w", err)
	}

	if ap.NewState == models.StateResolved {
		_, err = tx.ExecContext(ctx,
			`UPDATE escalations SET state = ?, decision = ?, instruction = ?, resolved_by = ?,
				resolved_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(ap.NewState), ap.Decision, nullable(ap.Instruction), nullable(ap.ResolvedBy), ap.EscalationID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE escalations SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(ap.NewState), ap.EscalationID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update escalation state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit round: %w", err)
	}
	return roundNumber, nil
}

// ListRounds returns all rounds of an escalation in round-number order.
func (r *EscalationRepository) ListRounds(ctx context.Context, escalationID string) ([]*secondary.RoundRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT escalation_id, round_number, type, request_text, response_text, created_at
		FROM escalation_rounds WHERE escalation_id = ? ORDER BY round_number ASC`,
		escalationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*secondary.RoundRecord
	for rows.Next() {
		var (
			record       secondary.RoundRecord
			roundType    string
			requestText  sql.NullString
			responseText sql.NullString
			createdAt    time.Time
		)
		err := rows.Scan(&record.EscalationID, &record.RoundNumber, &roundType, &requestText, &responseText, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		record.Type = models.RoundType(roundType)
		record.RequestText = requestText.String
		record.ResponseText = responseText.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		rounds = append(rounds, &record)
	}
	return rounds, rows.Err()
}

// MarkFailed transitions an escalation to failed. Already-terminal escalations
// yield ErrTerminalState so the caller can no-op.
func (r *EscalationRepository) MarkFailed(ctx context.Context, id, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE escalations SET state = 'failed', failure_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND state NOT IN ('resolved', 'failed')`,
		reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark escalation failed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish a missing escalation from an already-terminal one.
		var state string
		err := r.db.QueryRowContext(ctx, `SELECT state FROM escalations WHERE id = ?`, id).Scan(&state)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check escalation state: %w", err)
		}
		return fmt.Errorf("escalation %s is %s: %w", id, state, secondary.ErrTerminalState)
	}
	return nil
}

// MarkResumed records the resumption marker and timestamp.
func (r *EscalationRepository) MarkResumed(ctx context.Context, id, marker string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE escalations SET resumed_at = CURRENT_TIMESTAMP, resume_marker = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		marker, id)
	if err != nil {
		return fmt.Errorf("failed to mark escalation resumed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("escalation %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// ExpireStale fails pending escalations created before the cutoff.
func (r *EscalationRepository) ExpireStale(ctx context.Context, tenantID, cutoff, reason string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM escalations
		WHERE tenant_id = ? AND state IN ('paused', 'awaiting_clarification') AND created_at < ?`,
		tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale escalations: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stale escalation: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read stale escalations: %w", err)
	}
	rows.Close()

	for _, id := range ids {
		_, err := tx.ExecContext(ctx,
			`UPDATE escalations SET state = 'failed', failure_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			reason, id)
		if err != nil {
			return nil, fmt.Errorf("failed to expire escalation %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expiry: %w", err)
	}
	return ids, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

func scanEscalation(row scanner) (*secondary.EscalationRecord, error) {
	var (
		requesterAddr sql.NullString
		requesterName sql.NullString
		requesterRole sql.NullString
		sessionRef    sql.NullString
		messageRef    sql.NullString
		summary       sql.NullString
		decision      sql.NullString
		instruction   sql.NullString
		resolvedBy    sql.NullString
		resumeMarker  sql.NullString
		failureReason sql.NullString
		priority      string
		state         string
		resolvedAt    sql.NullTime
		resumedAt     sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
	)

	record := &secondary.EscalationRecord{}
	err := row.Scan(
		&record.ID, &record.TenantID, &record.OriginAgent, &record.Type, &priority, &state,
		&requesterAddr, &requesterName, &requesterRole, &sessionRef, &messageRef,
		&record.Reason, &record.Needed, &record.ContextJSON, &summary, &decision,
		&instruction, &resolvedBy, &resolvedAt, &resumedAt, &resumeMarker, &failureReason,
		&createdAt, &updatedAt, &record.RoundCount,
	)
	if err != nil {
		return nil, err
	}

	record.Priority = models.Priority(priority)
	record.State = models.State(state)
	record.RequesterAddr = requesterAddr.String
	record.RequesterName = requesterName.String
	record.RequesterRole = requesterRole.String
	record.SessionRef = sessionRef.String
	record.MessageRef = messageRef.String
	record.Summary = summary.String
	record.Decision = decision.String
	record.Instruction = instruction.String
	record.ResolvedBy = resolvedBy.String
	record.ResumeMarker = resumeMarker.String
	record.FailureReason = failureReason.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time.Format(time.RFC3339)
	}
	if resumedAt.Valid {
		record.ResumedAt = resumedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure EscalationRepository implements the interface
var _ secondary.EscalationRepository = (*EscalationRepository)(nil)
