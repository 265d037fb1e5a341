package app

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/example/regent/internal/core/approval"
	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/models"
	"github.com/example/regent/internal/ports/primary"
	"github.com/example/regent/internal/ports/secondary"
)

// requiredContextFields names, per action, the context-blob fields the
// dispatcher must see before it will execute. The blob was captured at pause
// time under controlled conditions; these are the identifiers it must carry.
var requiredContextFields = map[authz.ActionKind][]string{
	authz.ActionApproveMarkSubmission: {"workflow_id"},
	authz.ActionRejectMarkSubmission:  {"workflow_id"},
	authz.ActionConfirmFeePayment:     {"student_id"},
	authz.ActionReleaseResults:        {"term_id"},
	authz.ActionAmendMark:             {"student_id", "subject"},
	authz.ActionDeactivateStaff:       {"staff_id"},
	authz.ActionAssignTeacher:         {"teacher_id", "class_id"},
}

// DispatchServiceImpl implements the DispatchService interface: it turns a
// resolved escalation's decision into an authorized domain action.
type DispatchServiceImpl struct {
	escalationRepo secondary.EscalationRepository
	registry       *authz.Registry
	executors      secondary.ExecutorRegistry
	notifier       secondary.Notifier
	audit          secondary.AuditSink
}

// NewDispatchService creates a new DispatchService with injected dependencies.
func NewDispatchService(
	escalationRepo secondary.EscalationRepository,
	registry *authz.Registry,
	executors secondary.ExecutorRegistry,
	notifier secondary.Notifier,
	audit secondary.AuditSink,
) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		escalationRepo: escalationRepo,
		registry:       registry,
		executors:      executors,
		notifier:       notifier,
		audit:          audit,
	}
}

// Dispatch validates, authorizes and executes the action implied by a
// resolved escalation.
func (s *DispatchServiceImpl) Dispatch(ctx context.Context, req primary.DispatchRequest) (*primary.DispatchResult, error) {
	record, err := s.escalationRepo.GetByIDForTenant(ctx, req.EscalationID, req.TenantID)
	if err != nil {
		return nil, err
	}
	if record.State != models.StateResolved {
		return nil, fmt.Errorf("escalation %s is not resolved (current state: %s)", req.EscalationID, record.State)
	}

	escalation := recordToEscalation(record)

	result := &primary.DispatchResult{Action: req.Action}

	// Fallback inference: a plain "yes, approve it" must not strand the
	// authority's decision just because the upstream parser dropped the
	// action. The gate still re-validates whatever is inferred.
	if result.Action == "" {
		inferred, ok := approval.Infer(escalation.Type, escalation.Decision)
		if !ok {
			return nil, fmt.Errorf("no action supplied and none inferable from decision %q for type %s",
				escalation.Decision, escalation.Type)
		}
		result.Action = inferred
		result.Inferred = true
		log.Printf("inferred action %s for escalation %s from decision text", inferred, req.EscalationID)
	}

	params, corrections := mergeParams(req.Params, escalation.Context)
	result.Corrections = corrections
	for _, c := range corrections {
		log.Printf("identifier correction on escalation %s: %s", req.EscalationID, c)
		s.auditEvent(ctx, record.TenantID, record.ID, secondary.AuditIdentifierCorrected, c)
	}

	if err := validateParams(result.Action, params); err != nil {
		return nil, err
	}

	decision := s.registry.Authorize(authz.Request{
		Action:                result.Action,
		Role:                  req.Role,
		IntentConfirmed:       req.IntentConfirmed,
		AuthorityAcknowledged: req.AuthorityAcknowledged,
	})
	result.Authorized = decision.Authorized
	if !decision.Authorized {
		result.Reason = decision.Reason
		return result, nil
	}

	executor, ok := s.executors.ExecutorFor(result.Action)
	if !ok {
		return nil, fmt.Errorf("no executor registered for action %s", result.Action)
	}

	summary, err := executor.Execute(ctx, secondary.ActionInvocation{
		Action:       result.Action,
		TenantID:     record.TenantID,
		EscalationID: record.ID,
		Params:       params,
		DecidedBy:    record.ResolvedBy,
		Instruction:  record.Instruction,
	})
	if err != nil {
		// No silent retry. The escalation stays resolved; a resolved-but-
		// failed-to-execute escalation is a known, loggable condition.
		s.auditEvent(ctx, record.TenantID, record.ID, secondary.AuditActionFailed, err.Error())
		s.notifyAuthority(ctx, record, req.AuthorityAddr,
			fmt.Sprintf("Action %s for escalation %s failed: %v", result.Action, record.ID, err))
		return result, fmt.Errorf("failed to execute %s: %w", result.Action, err)
	}

	result.Executed = true
	result.Summary = summary
	s.auditEvent(ctx, record.TenantID, record.ID, secondary.AuditActionExecuted, summary)
	return result, nil
}

// mergeParams overlays caller-supplied identifiers with the escalation's
// context blob. On any disagreement the blob wins; the correction is reported,
// never treated as a failure.
func mergeParams(supplied, contextBlob map[string]string) (map[string]string, []string) {
	merged := make(map[string]string, len(supplied)+len(contextBlob))
	for k, v := range supplied {
		merged[k] = v
	}

	keys := make([]string, 0, len(contextBlob))
	for k := range contextBlob {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var corrections []string
	for _, k := range keys {
		v := contextBlob[k]
		if prev, ok := merged[k]; ok && prev != v {
			corrections = append(corrections, fmt.Sprintf("%s: %q overridden by context value %q", k, prev, v))
		}
		merged[k] = v
	}
	return merged, corrections
}

// validateParams checks that the action's required identifiers are present.
func validateParams(action authz.ActionKind, params map[string]string) error {
	for _, field := range requiredContextFields[action] {
		if params[field] == "" {
			return fmt.Errorf("action %s requires context field %s", action, field)
		}
	}
	return nil
}

func (s *DispatchServiceImpl) notifyAuthority(ctx context.Context, record *secondary.EscalationRecord, authorityAddr, text string) {
	if s.notifier == nil || authorityAddr == "" {
		return
	}
	if err := s.notifier.Notify(ctx, record.TenantID, authorityAddr, text); err != nil {
		log.Printf("warning: failed to notify %s about escalation %s: %v", authorityAddr, record.ID, err)
	}
}

func (s *DispatchServiceImpl) auditEvent(ctx context.Context, tenantID, escalationID, eventType, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, secondary.AuditEvent{
		TenantID:     tenantID,
		EscalationID: escalationID,
		EventType:    eventType,
		Detail:       detail,
	})
	if err != nil {
		log.Printf("warning: audit event %s for escalation %s dropped: %v", eventType, escalationID, err)
	}
}

// Ensure DispatchServiceImpl implements the interface
var _ primary.DispatchService = (*DispatchServiceImpl)(nil)
