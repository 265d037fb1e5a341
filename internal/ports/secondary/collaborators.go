package secondary

import (
	"context"

	"github.com/example/regent/internal/core/authz"
)

// Notifier delivers a human-readable message to a contact address. Delivery
// retries and read receipts are the transport's problem, not the core's.
type Notifier interface {
	Notify(ctx context.Context, tenantID, address, text string) error
}

// Audit event types, one per escalation state transition plus dispatcher
// outcomes.
const (
	AuditEscalationCreated   = "escalation_created"
	AuditRoundRecorded       = "round_recorded"
	AuditEscalationResolved  = "escalation_resolved"
	AuditEscalationFailed    = "escalation_failed"
	AuditEscalationResumed   = "escalation_resumed"
	AuditIdentifierCorrected = "identifier_corrected"
	AuditActionExecuted      = "action_executed"
	AuditActionFailed        = "action_failed"
)

// AuditEvent is one fire-and-forget audit record.
type AuditEvent struct {
	TenantID     string
	EscalationID string
	EventType    string
	Detail       string
}

// AuditSink records audit events. Failures must never block the state
// transition that produced the event.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error

	// ListByEscalation returns events for one escalation, oldest first.
	ListByEscalation(ctx context.Context, escalationID string) ([]*AuditEvent, error)
}

// ActionInvocation is the validated, authorized payload handed to a domain
// action executor.
type ActionInvocation struct {
	Action       authz.ActionKind
	TenantID     string
	EscalationID string
	Params       map[string]string
	DecidedBy    string
	Instruction  string
}

// ActionExecutor performs one privileged domain action. The summary is relayed
// to both parties verbatim; the core never interprets it.
type ActionExecutor interface {
	Execute(ctx context.Context, inv ActionInvocation) (summary string, err error)
}

// ExecutorRegistry resolves the executor for an action kind.
type ExecutorRegistry interface {
	ExecutorFor(kind authz.ActionKind) (ActionExecutor, bool)
}
