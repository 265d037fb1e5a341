// Package models contains shared domain enumerations used across ports and adapters.
package models

// State is the lifecycle state of an escalation.
type State string

const (
	StatePaused                State = "paused"
	StateAwaitingClarification State = "awaiting_clarification"
	StateInAuthority           State = "in_authority"
	StateResolved              State = "resolved"
	StateFailed                State = "failed"
)

// IsTerminal reports whether the state permits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateResolved || s == StateFailed
}

// IsPending reports whether the escalation should appear in the authority's queue.
func (s State) IsPending() bool {
	return s == StatePaused || s == StateAwaitingClarification
}

// Priority is the ordered urgency of an escalation.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank returns the sort rank of a priority; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// NormalizePriority maps free-form priority strings onto the ordered enum.
// Unknown or empty values normalize to MEDIUM.
func NormalizePriority(s string) Priority {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	}
	switch s {
	case "critical", "urgent":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	}
	return PriorityMedium
}

// RoundType classifies one authority exchange within an escalation.
type RoundType string

const (
	RoundClarificationRequest RoundType = "clarification_request"
	RoundNeedsDecision        RoundType = "needs_decision"
	RoundDecisionMade         RoundType = "decision_made"
)

// Valid reports whether the round type is one of the known kinds.
func (r RoundType) Valid() bool {
	switch r {
	case RoundClarificationRequest, RoundNeedsDecision, RoundDecisionMade:
		return true
	}
	return false
}

// NextState returns the escalation state implied by recording a round of this type.
func (r RoundType) NextState() State {
	switch r {
	case RoundClarificationRequest:
		return StateAwaitingClarification
	case RoundDecisionMade:
		return StateResolved
	default:
		return StateInAuthority
	}
}
