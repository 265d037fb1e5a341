package primary

import "context"

// FocusService defines the primary port for an authority's current-attention
// pointer. Focus is advisory: the escalation record stays the source of truth.
type FocusService interface {
	// Lock points an authority at an escalation. A conflicting lock is
	// silently replaced (last lock wins).
	Lock(ctx context.Context, authorityAddr, tenantID, escalationID string) error

	// Unlock clears the authority's lock. Idempotent.
	Unlock(ctx context.Context, authorityAddr string) error

	// GetActive returns the locked escalation joined with its current record,
	// or nil if the authority holds no lock.
	GetActive(ctx context.Context, authorityAddr string) (*ActiveFocus, error)

	// GetNextPending returns the highest-priority pending escalation for the
	// tenant, excluding the given ID. Returns nil when nothing is pending.
	GetNextPending(ctx context.Context, tenantID, excludeID string) (*Escalation, error)
}

// ActiveFocus is an authority's lock joined with the escalation it points at.
type ActiveFocus struct {
	AuthorityAddr     string
	TenantID          string
	LastInteractionAt string
	Escalation        *Escalation
}
