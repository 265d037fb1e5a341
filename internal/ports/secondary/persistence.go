// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"

	"github.com/example/regent/internal/models"
)

// ErrNotFound is returned when a record does not exist. A cross-tenant miss is
// deliberately indistinguishable from a nonexistent ID.
var ErrNotFound = errors.New("not found")

// ErrTerminalState is returned when a write would transition an escalation
// that is already resolved or failed. Callers treat it as an idempotent no-op.
var ErrTerminalState = errors.New("escalation is in a terminal state")

// EscalationRecord represents an escalation as stored in persistence.
type EscalationRecord struct {
	ID            string
	TenantID      string
	OriginAgent   string
	Type          string
	Priority      models.Priority
	State         models.State
	RequesterAddr string
	RequesterName string
	RequesterRole string
	SessionRef    string
	MessageRef    string
	Reason        string
	Needed        string
	ContextJSON   string
	Summary       string
	Decision      string
	Instruction   string
	ResolvedBy    string
	ResolvedAt    string
	ResumedAt     string
	ResumeMarker  string
	FailureReason string
	RoundCount    int
	CreatedAt     string
	UpdatedAt     string
}

// RoundRecord represents one authority exchange as stored in persistence.
// Rounds are append-only; they are never mutated after creation.
type RoundRecord struct {
	EscalationID string
	RoundNumber  int
	Type         models.RoundType
	RequestText  string
	ResponseText string
	CreatedAt    string
}

// RoundAppend carries everything one atomic round-append needs: the round
// itself plus the escalation-side updates it implies. The repository performs
// the state re-check, round numbering, insert and update in one transaction.
type RoundAppend struct {
	EscalationID string
	Type         models.RoundType
	RequestText  string
	ResponseText string
	NewState     models.State
	Decision     string
	Instruction  string
	ResolvedBy   string
}

// EscalationRepository defines the secondary port for escalation persistence.
type EscalationRepository interface {
	// Create persists a new escalation.
	Create(ctx context.Context, record *EscalationRecord) error

	// GetByID retrieves an escalation by its ID without a tenant check.
	GetByID(ctx context.Context, id string) (*EscalationRecord, error)

	// GetByIDForTenant retrieves an escalation only if it belongs to the tenant.
	// A wrong tenant yields ErrNotFound, same as a missing ID.
	GetByIDForTenant(ctx context.Context, id, tenantID string) (*EscalationRecord, error)

	// ListPending returns paused and awaiting-clarification escalations for a
	// tenant, ordered by priority rank then creation time. The order is stable
	// across calls when no escalation is added.
	ListPending(ctx context.Context, tenantID string) ([]*EscalationRecord, error)

	// AppendRound atomically appends a round with a server-assigned number and
	// applies the implied escalation update. Returns the assigned round number.
	// Returns ErrTerminalState if the escalation is already resolved or failed.
	AppendRound(ctx context.Context, ap RoundAppend) (int, error)

	// ListRounds returns all rounds of an escalation in round-number order.
	ListRounds(ctx context.Context, escalationID string) ([]*RoundRecord, error)

	// MarkFailed transitions an escalation to the failed state with a reason.
	// Returns ErrTerminalState if the escalation is already terminal.
	MarkFailed(ctx context.Context, id, reason string) error

	// MarkResumed records that the originating flow has been given the chance
	// to continue, with a marker for traceability.
	MarkResumed(ctx context.Context, id, marker string) error

	// ExpireStale fails pending escalations created before the cutoff and
	// returns the IDs it transitioned.
	ExpireStale(ctx context.Context, tenantID, cutoff, reason string) ([]string, error)
}

// FocusRecord represents an authority's current-attention pointer.
type FocusRecord struct {
	AuthorityAddr     string
	TenantID          string
	EscalationID      string // empty means no lock
	LastInteractionAt string
}

// FocusRepository defines the secondary port for focus-state persistence.
// Focus is advisory: locks never block and a conflicting lock silently
// replaces the previous one.
type FocusRepository interface {
	// Lock upserts the focus pointer for an authority address. Last lock wins.
	Lock(ctx context.Context, authorityAddr, tenantID, escalationID string) error

	// Unlock clears the lock. Unlocking an address with no lock is a no-op.
	Unlock(ctx context.Context, authorityAddr string) error

	// Get returns the focus record for an address, or ErrNotFound if the
	// address has never locked anything.
	Get(ctx context.Context, authorityAddr string) (*FocusRecord, error)

	// NextPending returns the single highest-priority pending escalation for a
	// tenant, excluding the given ID (pass "" to exclude nothing).
	NextPending(ctx context.Context, tenantID, excludeID string) (*EscalationRecord, error)
}
