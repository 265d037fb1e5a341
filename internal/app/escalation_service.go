// Package app contains the application layer - service implementations that
// orchestrate the core guards, repositories and collaborators.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	coreescalation "github.com/example/regent/internal/core/escalation"
	"github.com/example/regent/internal/models"
	"github.com/example/regent/internal/ports/primary"
	"github.com/example/regent/internal/ports/secondary"
)

// EscalationServiceImpl implements the EscalationService interface.
type EscalationServiceImpl struct {
	escalationRepo secondary.EscalationRepository
	audit          secondary.AuditSink
	notifier       secondary.Notifier

	// authorityAddr is where new escalations are announced; empty disables
	// the announcement.
	authorityAddr string

	// staleAfter gates ExpireStale; zero disables the sweep entirely.
	staleAfter time.Duration
}

// NewEscalationService creates a new EscalationService with injected dependencies.
func NewEscalationService(
	escalationRepo secondary.EscalationRepository,
	audit secondary.AuditSink,
	notifier secondary.Notifier,
	authorityAddr string,
	staleAfter time.Duration,
) *EscalationServiceImpl {
	return &EscalationServiceImpl{
		escalationRepo: escalationRepo,
		audit:          audit,
		notifier:       notifier,
		authorityAddr:  authorityAddr,
		staleAfter:     staleAfter,
	}
}

// Pause suspends an originating flow by persisting a new escalation. It
// returns as soon as the record is durable; it never waits on delivery.
func (s *EscalationServiceImpl) Pause(ctx context.Context, req primary.PauseRequest) (string, error) {
	guard := coreescalation.CanPause(coreescalation.PauseContext{
		TenantID:    req.TenantID,
		OriginAgent: req.OriginAgent,
		Reason:      req.Reason,
		Needed:      req.Needed,
	})
	if err := guard.Error(); err != nil {
		return "", err
	}

	contextJSON := "{}"
	if len(req.Context) > 0 {
		data, err := json.Marshal(req.Context)
		if err != nil {
			return "", fmt.Errorf("failed to encode escalation context: %w", err)
		}
		contextJSON = string(data)
	}

	record := &secondary.EscalationRecord{
		ID:            uuid.NewString(),
		TenantID:      req.TenantID,
		OriginAgent:   req.OriginAgent,
		Type:          strings.ToUpper(strings.TrimSpace(req.Type)),
		Priority:      models.NormalizePriority(req.Priority),
		State:         models.StatePaused,
		RequesterAddr: req.RequesterAddr,
		RequesterName: req.RequesterName,
		RequesterRole: req.RequesterRole,
		SessionRef:    req.SessionRef,
		MessageRef:    req.MessageRef,
		Reason:        req.Reason,
		Needed:        req.Needed,
		ContextJSON:   contextJSON,
		Summary:       req.Summary,
	}

	// Creation failures propagate: the originating flow must not proceed as
	// if it were authorized.
	if err := s.escalationRepo.Create(ctx, record); err != nil {
		return "", err
	}

	s.auditEvent(ctx, record.TenantID, record.ID, secondary.AuditEscalationCreated,
		fmt.Sprintf("type=%s priority=%s origin=%s", record.Type, record.Priority, record.OriginAgent))

	// Announcement is best-effort: the pause is durable the moment the record
	// is, whether or not the authority hears about it right away.
	s.notify(ctx, record.TenantID, s.authorityAddr,
		fmt.Sprintf("[%s] Escalation %s from %s: %s", record.Priority, record.ID, record.OriginAgent, record.Needed))

	return record.ID, nil
}

// GetEscalation retrieves an escalation by ID.
func (s *EscalationServiceImpl) GetEscalation(ctx context.Context, escalationID string) (*primary.Escalation, error) {
	record, err := s.escalationRepo.GetByID(ctx, escalationID)
	if err != nil {
		return nil, err
	}
	return recordToEscalation(record), nil
}

// FetchForAuthority returns the escalation plus a situational brief. A tenant
// mismatch surfaces as not-found so cross-tenant probing learns nothing.
func (s *EscalationServiceImpl) FetchForAuthority(ctx context.Context, escalationID, tenantID string, history []string) (*primary.AuthorityView, error) {
	record, err := s.escalationRepo.GetByIDForTenant(ctx, escalationID, tenantID)
	if err != nil {
		return nil, err
	}

	escalation := recordToEscalation(record)
	return &primary.AuthorityView{
		Escalation: escalation,
		Brief:      buildBrief(escalation, history),
	}, nil
}

// RecordAuthorityResponse appends a round and applies the state transition it
// implies, atomically. A response against a terminal escalation is a no-op
// success so that concurrent replies cannot double-apply side effects.
func (s *EscalationServiceImpl) RecordAuthorityResponse(ctx context.Context, resp primary.AuthorityResponse) (*primary.RoundReceipt, error) {
	if !resp.Type.Valid() {
		return nil, fmt.Errorf("unknown round type: %s", resp.Type)
	}

	record, err := s.escalationRepo.GetByID(ctx, resp.EscalationID)
	if err != nil {
		return nil, err
	}

	guard := coreescalation.CanRecordRound(coreescalation.RoundContext{
		EscalationID:     resp.EscalationID,
		State:            record.State,
		RoundType:        resp.Type,
		HasDecisionRound: record.State == models.StateResolved,
	})
	if !guard.Allowed {
		if record.State.IsTerminal() {
			log.Printf("warning: round for escalation %s ignored: %s", resp.EscalationID, guard.Reason)
			return &primary.RoundReceipt{State: record.State, NoOp: true}, nil
		}
		return nil, guard.Error()
	}

	newState := resp.Type.NextState()

	decision := resp.Decision
	if resp.Type == models.RoundDecisionMade && decision == "" {
		decision = resp.ResponseText
	}

	roundNumber, err := s.escalationRepo.AppendRound(ctx, secondary.RoundAppend{
		EscalationID: resp.EscalationID,
		Type:         resp.Type,
		RequestText:  resp.RequestText,
		ResponseText: resp.ResponseText,
		NewState:     newState,
		Decision:     decision,
		Instruction:  resp.Instruction,
		ResolvedBy:   resp.ResolvedBy,
	})
	if errors.Is(err, secondary.ErrTerminalState) {
		// Lost the race to another reply; the first transition stands.
		log.Printf("warning: round for escalation %s ignored: %v", resp.EscalationID, err)
		return &primary.RoundReceipt{State: record.State, NoOp: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.auditEvent(ctx, record.TenantID, resp.EscalationID, secondary.AuditRoundRecorded,
		fmt.Sprintf("round=%d type=%s", roundNumber, resp.Type))
	if newState == models.StateResolved {
		s.auditEvent(ctx, record.TenantID, resp.EscalationID, secondary.AuditEscalationResolved,
			fmt.Sprintf("decision=%s resolved_by=%s", decision, resp.ResolvedBy))
		s.notify(ctx, record.TenantID, record.RequesterAddr,
			fmt.Sprintf("Your escalation %s has been resolved: %s", record.ID, decision))
	}

	return &primary.RoundReceipt{RoundNumber: roundNumber, State: newState}, nil
}

// GetPendingEscalations lists pending escalations, highest priority first.
func (s *EscalationServiceImpl) GetPendingEscalations(ctx context.Context, tenantID string) ([]*primary.Escalation, error) {
	records, err := s.escalationRepo.ListPending(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending escalations: %w", err)
	}

	escalations := make([]*primary.Escalation, len(records))
	for i, r := range records {
		escalations[i] = recordToEscalation(r)
	}
	return escalations, nil
}

// ListRounds returns the full round history of an escalation.
func (s *EscalationServiceImpl) ListRounds(ctx context.Context, escalationID string) ([]*primary.Round, error) {
	records, err := s.escalationRepo.ListRounds(ctx, escalationID)
	if err != nil {
		return nil, err
	}

	rounds := make([]*primary.Round, len(records))
	for i, r := range records {
		rounds[i] = &primary.Round{
			EscalationID: r.EscalationID,
			RoundNumber:  r.RoundNumber,
			Type:         r.Type,
			RequestText:  r.RequestText,
			ResponseText: r.ResponseText,
			CreatedAt:    r.CreatedAt,
		}
	}
	return rounds, nil
}

// MarkForResumption records that the originating flow has been given the
// chance to continue. Resolution and resumption are deliberately decoupled:
// an authority may resolve while the originating user is offline.
func (s *EscalationServiceImpl) MarkForResumption(ctx context.Context, escalationID, marker string) error {
	record, err := s.escalationRepo.GetByID(ctx, escalationID)
	if err != nil {
		return err
	}

	guard := coreescalation.CanMarkResumed(coreescalation.ResumeContext{
		EscalationID: escalationID,
		State:        record.State,
	})
	if err := guard.Error(); err != nil {
		return err
	}

	if err := s.escalationRepo.MarkResumed(ctx, escalationID, marker); err != nil {
		return err
	}

	s.auditEvent(ctx, record.TenantID, escalationID, secondary.AuditEscalationResumed,
		fmt.Sprintf("marker=%s", marker))
	return nil
}

// MarkFailed closes an escalation that cannot make progress. Failing an
// already-terminal escalation is a no-op.
func (s *EscalationServiceImpl) MarkFailed(ctx context.Context, escalationID, reason string) error {
	if reason == "" {
		return fmt.Errorf("failure reason is required")
	}

	err := s.escalationRepo.MarkFailed(ctx, escalationID, reason)
	if errors.Is(err, secondary.ErrTerminalState) {
		log.Printf("warning: markFailed on escalation %s ignored: %v", escalationID, err)
		return nil
	}
	if err != nil {
		return err
	}

	record, getErr := s.escalationRepo.GetByID(ctx, escalationID)
	tenantID := ""
	if getErr == nil {
		tenantID = record.TenantID
	}
	s.auditEvent(ctx, tenantID, escalationID, secondary.AuditEscalationFailed, reason)
	return nil
}

// ExpireStale fails pending escalations older than the configured TTL. With
// no TTL configured the sweep is disabled and nothing happens.
func (s *EscalationServiceImpl) ExpireStale(ctx context.Context, tenantID string) ([]string, error) {
	if s.staleAfter <= 0 {
		return nil, nil
	}

	// sqlite CURRENT_TIMESTAMP writes UTC in this layout.
	cutoff := time.Now().UTC().Add(-s.staleAfter).Format("2006-01-02 15:04:05")
	reason := fmt.Sprintf("expired after %s without authority action", s.staleAfter)

	ids, err := s.escalationRepo.ExpireStale(ctx, tenantID, cutoff, reason)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.auditEvent(ctx, tenantID, id, secondary.AuditEscalationFailed, reason)
	}
	return ids, nil
}

// notify delivers a message best-effort. An unset address or a transport
// failure downgrades to a warning; transitions never wait on delivery.
func (s *EscalationServiceImpl) notify(ctx context.Context, tenantID, address, text string) {
	if s.notifier == nil || address == "" {
		return
	}
	if err := s.notifier.Notify(ctx, tenantID, address, text); err != nil {
		log.Printf("warning: failed to notify %s: %v", address, err)
	}
}

// auditEvent records an audit event best-effort. Audit failures never block
// the transition that produced them.
func (s *EscalationServiceImpl) auditEvent(ctx context.Context, tenantID, escalationID, eventType, detail string) {
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

// buildBrief assembles the authority's situational brief from the escalation
// fields plus the caller-supplied conversation history. The history is opaque
// context; it is relayed, never parsed.
func buildBrief(e *primary.Escalation, history []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Escalation %s [%s] from %s\n", e.ID, e.Priority, e.OriginAgent)
	fmt.Fprintf(&b, "Type: %s\n", e.Type)
	if e.RequesterName != "" {
		requester := e.RequesterName
		if e.RequesterRole != "" {
			requester += " (" + e.RequesterRole + ")"
		}
		fmt.Fprintf(&b, "Requested by: %s\n", requester)
	}
	fmt.Fprintf(&b, "Needed: %s\n", e.Needed)
	fmt.Fprintf(&b, "Reason: %s\n", e.Reason)
	if e.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", e.Summary)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation history:\n")
		for _, turn := range history {
			b.WriteString(turn)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// recordToEscalation converts a persistence record to the port DTO.
func recordToEscalation(r *secondary.EscalationRecord) *primary.Escalation {
	contextMap := map[string]string{}
	if r.ContextJSON != "" && r.ContextJSON != "{}" {
		if err := json.Unmarshal([]byte(r.ContextJSON), &contextMap); err != nil {
			log.Printf("warning: escalation %s has malformed context blob: %v", r.ID, err)
		}
	}

	return &primary.Escalation{
		ID:            r.ID,
		TenantID:      r.TenantID,
		OriginAgent:   r.OriginAgent,
		Type:          r.Type,
		Priority:      r.Priority,
		State:         r.State,
		RequesterAddr: r.RequesterAddr,
		RequesterName: r.RequesterName,
		RequesterRole: r.RequesterRole,
		SessionRef:    r.SessionRef,
		MessageRef:    r.MessageRef,
		Reason:        r.Reason,
		Needed:        r.Needed,
		Context:       contextMap,
		Summary:       r.Summary,
		Decision:      r.Decision,
		Instruction:   r.Instruction,
		ResolvedBy:    r.ResolvedBy,
		ResolvedAt:    r.ResolvedAt,
		ResumedAt:     r.ResumedAt,
		ResumeMarker:  r.ResumeMarker,
		FailureReason: r.FailureReason,
		RoundCount:    r.RoundCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Ensure EscalationServiceImpl implements the interface
var _ primary.EscalationService = (*EscalationServiceImpl)(nil)
