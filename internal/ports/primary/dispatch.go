package primary

import (
	"context"

	"github.com/example/regent/internal/core/authz"
)

// DispatchService defines the primary port for executing a resolved
// escalation's decision as a concrete domain action.
type DispatchService interface {
	// Dispatch validates, authorizes and executes the action implied by a
	// resolved escalation. Identifiers from the escalation's context blob
	// always override caller-supplied values. Execution failures are reported,
	// never retried; the escalation stays resolved either way.
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error)
}

// DispatchRequest carries the caller's view of the action to execute.
type DispatchRequest struct {
	EscalationID string
	TenantID     string
	Role         string

	// AuthorityAddr, when set, is where execution failures are reported.
	AuthorityAddr string

	// Action may be empty; the dispatcher then tries to infer it from the
	// decision text and escalation type.
	Action authz.ActionKind

	// Params are caller-supplied identifiers, e.g. extracted from free text.
	// Context-blob values win on any disagreement.
	Params map[string]string

	IntentConfirmed       bool
	AuthorityAcknowledged bool
}

// DispatchResult reports what the dispatcher decided and did.
type DispatchResult struct {
	Action      authz.ActionKind
	Inferred    bool
	Authorized  bool
	Reason      string // denial reason when not authorized
	Executed    bool
	Summary     string
	Corrections []string // identifier overrides applied from the context blob
}
