package escalation

import (
	"testing"

	"github.com/example/regent/internal/models"
)

func TestCanPause(t *testing.T) {
	tests := []struct {
		name        string
		ctx         PauseContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can pause with all fields present",
			ctx: PauseContext{
				TenantID:    "school-1",
				OriginAgent: "marks-agent",
				Reason:      "marks submitted",
				Needed:      "approval",
			},
			wantAllowed: true,
		},
		{
			name: "cannot pause without a tenant",
			ctx: PauseContext{
				OriginAgent: "marks-agent",
				Reason:      "marks submitted",
				Needed:      "approval",
			},
			wantAllowed: false,
			wantReason:  "tenant not identified",
		},
		{
			name: "cannot pause without an origin agent",
			ctx: PauseContext{
				TenantID: "school-1",
				Reason:   "marks submitted",
				Needed:   "approval",
			},
			wantAllowed: false,
			wantReason:  "origin agent not identified",
		},
		{
			name: "cannot pause without a reason",
			ctx: PauseContext{
				TenantID:    "school-1",
				OriginAgent: "marks-agent",
				Needed:      "approval",
			},
			wantAllowed: false,
			wantReason:  "escalation reason is required",
		},
		{
			name: "cannot pause without a needed description",
			ctx: PauseContext{
				TenantID:    "school-1",
				OriginAgent: "marks-agent",
				Reason:      "marks submitted",
			},
			wantAllowed: false,
			wantReason:  "description of what is needed is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanPause(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanRecordRound(t *testing.T) {
	tests := []struct {
		name        string
		ctx         RoundContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can record clarification on a paused escalation",
			ctx: RoundContext{
				EscalationID: "ESC-001",
				State:        models.StatePaused,
				RoundType:    models.RoundClarificationRequest,
			},
			wantAllowed: true,
		},
		{
			name: "can record decision after clarification",
			ctx: RoundContext{
				EscalationID: "ESC-001",
				State:        models.StateAwaitingClarification,
				RoundType:    models.RoundDecisionMade,
			},
			wantAllowed: true,
		},
		{
			name: "cannot record round with unknown type",
			ctx: RoundContext{
				EscalationID: "ESC-001",
				State:        models.StatePaused,
				RoundType:    "musing",
			},
			wantAllowed: false,
			wantReason:  "unknown round type: musing",
		},
		{
			name: "cannot record round on a resolved escalation",
			ctx: RoundContext{
				EscalationID: "ESC-001",
				State:        models.StateResolved,
				RoundType:    models.RoundNeedsDecision,
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 is already resolved",
		},
		{
			name: "cannot record round on a failed escalation",
			ctx: RoundContext{
				EscalationID: "ESC-001",
				State:        models.StateFailed,
				RoundType:    models.RoundDecisionMade,
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 is already failed",
		},
		{
			name: "cannot record a second decision round",
			ctx: RoundContext{
				EscalationID:     "ESC-001",
				State:            models.StateInAuthority,
				RoundType:        models.RoundDecisionMade,
				HasDecisionRound: true,
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 already has a decision round",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanRecordRound(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanMarkFailed(t *testing.T) {
	tests := []struct {
		name        string
		ctx         FailContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can fail a pending escalation",
			ctx: FailContext{
				EscalationID: "ESC-001",
				State:        models.StatePaused,
				Reason:       "requester unreachable",
			},
			wantAllowed: true,
		},
		{
			name: "cannot fail without a reason",
			ctx: FailContext{
				EscalationID: "ESC-001",
				State:        models.StatePaused,
			},
			wantAllowed: false,
			wantReason:  "failure reason is required",
		},
		{
			name: "cannot fail an already-resolved escalation",
			ctx: FailContext{
				EscalationID: "ESC-001",
				State:        models.StateResolved,
				Reason:       "too late",
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 is already resolved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanMarkFailed(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanMarkResumed(t *testing.T) {
	tests := []struct {
		name        string
		ctx         ResumeContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can mark a resolved escalation resumed",
			ctx: ResumeContext{
				EscalationID: "ESC-001",
				State:        models.StateResolved,
			},
			wantAllowed: true,
		},
		{
			name: "cannot resume a pending escalation",
			ctx: ResumeContext{
				EscalationID: "ESC-001",
				State:        models.StatePaused,
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 is not resolved (current state: paused)",
		},
		{
			name: "cannot resume a failed escalation",
			ctx: ResumeContext{
				EscalationID: "ESC-001",
				State:        models.StateFailed,
			},
			wantAllowed: false,
			wantReason:  "escalation ESC-001 is not resolved (current state: failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanMarkResumed(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}
