// Package authz contains the action authorization gate: a static registry of
// privileged actions and a pure evaluation function over it. Every privileged
// side effect passes through Authorize, whether it was reached by direct
// conversation or by escalation resolution.
package authz

import (
	"fmt"
	"sort"
	"strings"
)

// ActionKind identifies a privileged action.
type ActionKind string

const (
	ActionApproveMarkSubmission ActionKind = "APPROVE_MARK_SUBMISSION"
	ActionRejectMarkSubmission  ActionKind = "REJECT_MARK_SUBMISSION"
	ActionConfirmFeePayment     ActionKind = "CONFIRM_FEE_PAYMENT"
	ActionReleaseResults        ActionKind = "RELEASE_RESULTS"
	ActionAmendMark             ActionKind = "AMEND_MARK"
	ActionDeactivateStaff       ActionKind = "DEACTIVATE_STAFF"
	ActionAssignTeacher         ActionKind = "ASSIGN_TEACHER"
)

// Spec declares who may invoke an action and which confirmations it demands.
type Spec struct {
	Kind                   ActionKind
	OwnerAgent             string
	Description            string
	Roles                  []string
	RequireIntentConfirmed bool
	RequireAuthorityAck    bool
}

// Request is one authorization question posed to the gate.
type Request struct {
	Action                ActionKind
	Role                  string
	IntentConfirmed       bool
	AuthorityAcknowledged bool
}

// Decision is the gate's answer. Denials always carry a human-readable reason;
// they are expected outcomes, never errors.
type Decision struct {
	Authorized bool
	Reason     string
}

// Registry is an immutable lookup table of action specs, built once at startup
// and injected wherever authorization is evaluated.
type Registry struct {
	specs map[ActionKind]Spec
}

// NewRegistry builds a registry from the given specs.
func NewRegistry(specs []Spec) *Registry {
	m := make(map[ActionKind]Spec, len(specs))
	for _, s := range specs {
		m[s.Kind] = s
	}
	return &Registry{specs: m}
}

// DefaultRegistry returns the registry of all privileged school actions.
func DefaultRegistry() *Registry {
	return NewRegistry([]Spec{
		{
			Kind:                   ActionApproveMarkSubmission,
			OwnerAgent:             "academics",
			Description:            "Approve a teacher's submitted marks for release into the gradebook",
			Roles:                  []string{"admin"},
			RequireIntentConfirmed: true,
			RequireAuthorityAck:    true,
		},
		{
			Kind:                ActionRejectMarkSubmission,
			OwnerAgent:          "academics",
			Description:         "Reject a teacher's submitted marks and return them for correction",
			Roles:               []string{"admin"},
			RequireAuthorityAck: true,
		},
		{
			Kind:                   ActionConfirmFeePayment,
			OwnerAgent:             "finance",
			Description:            "Confirm an offline fee payment against a student's account",
			Roles:                  []string{"admin", "bursar"},
			RequireIntentConfirmed: true,
			RequireAuthorityAck:    true,
		},
		{
			Kind:                   ActionReleaseResults,
			OwnerAgent:             "academics",
			Description:            "Release term results to parents and students",
			Roles:                  []string{"admin"},
			RequireIntentConfirmed: true,
			RequireAuthorityAck:    true,
		},
		{
			Kind:                   ActionAmendMark,
			OwnerAgent:             "academics",
			Description:            "Amend an individual mark after submission",
			Roles:                  []string{"admin", "head_teacher"},
			RequireIntentConfirmed: true,
			RequireAuthorityAck:    true,
		},
		{
			Kind:                   ActionDeactivateStaff,
			OwnerAgent:             "staffing",
			Description:            "Deactivate a staff member's account",
			Roles:                  []string{"admin"},
			RequireIntentConfirmed: true,
			RequireAuthorityAck:    true,
		},
		{
			Kind:        ActionAssignTeacher,
			OwnerAgent:  "staffing",
			Description: "Assign a teacher to a class and subject",
			Roles:       []string{"admin", "head_teacher"},
		},
	})
}

// Get returns the spec for an action kind.
func (r *Registry) Get(kind ActionKind) (Spec, bool) {
	s, ok := r.specs[kind]
	return s, ok
}

// Kinds returns all registered action kinds in stable order.
func (r *Registry) Kinds() []ActionKind {
	kinds := make([]ActionKind, 0, len(r.specs))
	for k := range r.specs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Authorize evaluates a request against the registry. It is a pure function:
// for a fixed registry the same request always yields the same decision.
func (r *Registry) Authorize(req Request) Decision {
	spec, ok := r.specs[req.Action]
	if !ok {
		return Decision{Reason: fmt.Sprintf("unknown action: %s", req.Action)}
	}
	if req.Role == "" {
		return Decision{Reason: "role not identified"}
	}
	if !roleAllowed(spec.Roles, req.Role) {
		return Decision{Reason: fmt.Sprintf(
			"role %s may not perform %s (requires: %s)",
			req.Role, spec.Kind, strings.Join(spec.Roles, ", "),
		)}
	}
	if spec.RequireIntentConfirmed && !req.IntentConfirmed {
		return Decision{Reason: fmt.Sprintf(
			"%s requires explicit intent confirmation", spec.Kind,
		)}
	}
	if spec.RequireAuthorityAck && !req.AuthorityAcknowledged {
		return Decision{Reason: fmt.Sprintf(
			"%s requires explicit authority acknowledgement", spec.Kind,
		)}
	}
	return Decision{Authorized: true}
}

func roleAllowed(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
