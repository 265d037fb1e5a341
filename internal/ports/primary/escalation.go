// Package primary defines the primary ports (driving interfaces) for the application.
package primary

import (
	"context"

	"github.com/example/regent/internal/models"
)

// EscalationService defines the primary port for the pause/resume protocol.
type EscalationService interface {
	// Pause suspends an originating flow by persisting a new escalation.
	// It returns immediately after the write; delivery to the authority is the
	// notification collaborator's job.
	Pause(ctx context.Context, req PauseRequest) (string, error)

	// GetEscalation retrieves an escalation by ID.
	GetEscalation(ctx context.Context, escalationID string) (*Escalation, error)

	// FetchForAuthority returns the escalation plus a situational brief for the
	// authority. A wrong tenant yields not-found, never the record.
	FetchForAuthority(ctx context.Context, escalationID, tenantID string, history []string) (*AuthorityView, error)

	// RecordAuthorityResponse appends a round and applies the state transition
	// it implies, atomically. Recording against a terminal escalation is a
	// no-op success.
	RecordAuthorityResponse(ctx context.Context, resp AuthorityResponse) (*RoundReceipt, error)

	// GetPendingEscalations lists paused and awaiting-clarification
	// escalations, highest priority first, oldest first within a priority.
	GetPendingEscalations(ctx context.Context, tenantID string) ([]*Escalation, error)

	// ListRounds returns the full round history of an escalation.
	ListRounds(ctx context.Context, escalationID string) ([]*Round, error)

	// MarkForResumption records that the originating flow has been given the
	// chance to continue. Deliberately decoupled from resolution.
	MarkForResumption(ctx context.Context, escalationID, marker string) error

	// MarkFailed closes an escalation that cannot make progress.
	MarkFailed(ctx context.Context, escalationID, reason string) error

	// ExpireStale fails pending escalations older than the configured TTL and
	// returns their IDs. Disabled (no-op) when no TTL is configured.
	ExpireStale(ctx context.Context, tenantID string) ([]string, error)
}

// PauseRequest carries everything needed to suspend an originating flow.
type PauseRequest struct {
	TenantID      string
	OriginAgent   string
	Type          string
	Priority      string // normalized at ingestion; empty defaults to MEDIUM
	RequesterAddr string
	RequesterName string
	RequesterRole string
	SessionRef    string
	MessageRef    string
	Reason        string
	Needed        string
	Context       map[string]string
	Summary       string
}

// Escalation represents an escalation entity at the port boundary.
type Escalation struct {
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
	Context       map[string]string
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

// Round represents one authority exchange at the port boundary.
type Round struct {
	EscalationID string
	RoundNumber  int
	Type         models.RoundType
	RequestText  string
	ResponseText string
	CreatedAt    string
}

// AuthorityView is what an authority sees when attending to an escalation.
type AuthorityView struct {
	Escalation *Escalation
	Brief      string
}

// AuthorityResponse is one authority reply to an escalation.
type AuthorityResponse struct {
	EscalationID string
	Type         models.RoundType
	RequestText  string
	ResponseText string

	// Decision fields, honored only on decision_made rounds.
	Decision    string
	Instruction string
	ResolvedBy  string
}

// RoundReceipt reports the outcome of recording an authority response.
type RoundReceipt struct {
	RoundNumber int
	State       models.State
	NoOp        bool // true when the escalation was already terminal
}
