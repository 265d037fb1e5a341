// Package escalation contains the pure business logic for the escalation lifecycle.
// Guards are pure functions that evaluate preconditions without side effects.
package escalation

import (
	"fmt"

	"github.com/example/regent/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// PauseContext provides context for escalation creation guards.
type PauseContext struct {
	TenantID    string
	OriginAgent string
	Reason      string
	Needed      string
}

// CanPause evaluates whether an escalation can be created.
// Rules:
// - Tenant and origin agent must be identified
// - Reason and the "what is needed" description must be present
func CanPause(ctx PauseContext) GuardResult {
	if ctx.TenantID == "" {
		return GuardResult{Allowed: false, Reason: "tenant not identified"}
	}
	if ctx.OriginAgent == "" {
		return GuardResult{Allowed: false, Reason: "origin agent not identified"}
	}
	if ctx.Reason == "" {
		return GuardResult{Allowed: false, Reason: "escalation reason is required"}
	}
	if ctx.Needed == "" {
		return GuardResult{Allowed: false, Reason: "description of what is needed is required"}
	}
	return GuardResult{Allowed: true}
}

// RoundContext provides context for authority-response guards.
type RoundContext struct {
	EscalationID     string
	State            models.State
	RoundType        models.RoundType
	HasDecisionRound bool
}

// CanRecordRound evaluates whether an authority round can be appended.
// Rules:
// - Round type must be one of the known kinds
// - Terminal escalations accept no further rounds
// - Only one decision round may ever exist
func CanRecordRound(ctx RoundContext) GuardResult {
	if !ctx.RoundType.Valid() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown round type: %s", ctx.RoundType),
		}
	}
	if ctx.State.IsTerminal() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("escalation %s is already %s", ctx.EscalationID, ctx.State),
		}
	}
	if ctx.HasDecisionRound && ctx.RoundType == models.RoundDecisionMade {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("escalation %s already has a decision round", ctx.EscalationID),
		}
	}
	return GuardResult{Allowed: true}
}

// FailContext provides context for terminal-failure guards.
type FailContext struct {
	EscalationID string
	State        models.State
	Reason       string
}

// CanMarkFailed evaluates whether an escalation can be failed.
// Terminal escalations stay as they are (idempotence handled by the caller).
func CanMarkFailed(ctx FailContext) GuardResult {
	if ctx.Reason == "" {
		return GuardResult{Allowed: false, Reason: "failure reason is required"}
	}
	if ctx.State.IsTerminal() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("escalation %s is already %s", ctx.EscalationID, ctx.State),
		}
	}
	return GuardResult{Allowed: true}
}

// ResumeContext provides context for resumption guards.
type ResumeContext struct {
	EscalationID string
	State        models.State
}

// CanMarkResumed evaluates whether an escalation can be marked as resumed.
// Resumption is only meaningful once a decision has been recorded.
func CanMarkResumed(ctx ResumeContext) GuardResult {
	if ctx.State != models.StateResolved {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("escalation %s is not resolved (current state: %s)", ctx.EscalationID, ctx.State),
		}
	}
	return GuardResult{Allowed: true}
}
