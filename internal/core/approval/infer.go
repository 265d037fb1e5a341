// Package approval contains the fallback classifier that recognizes a plain
// natural-language approval in an authority's decision text. It exists so that
// a missed explicit action does not strand an approval (recall over precision).
// Its output is a suggestion only: the authorization gate re-validates every
// inferred action before any side effect runs.
package approval

import (
	"regexp"
	"strings"

	"github.com/example/regent/internal/core/authz"
)

// Anchored so that "yes" embedded in an unrelated sentence does not match.
// TODO(product): confirm these patterns are precise enough before widening them.
var affirmativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|yup|ok|okay|sure)\b`),
	regexp.MustCompile(`(?i)^\s*(approve[d]?|confirm(ed)?|accept(ed)?)\b`),
	regexp.MustCompile(`(?i)^\s*(go ahead|proceed|do it|release (it|them))\b`),
	regexp.MustCompile(`(?i)\bi (approve|confirm|accept)\b`),
}

// Affirmative reports whether the decision text reads as a plain approval.
func Affirmative(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, p := range affirmativePatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// typeActions maps each escalation type to the action its approval implies.
var typeActions = map[string]authz.ActionKind{
	"MARK_SUBMISSION_APPROVAL":    authz.ActionApproveMarkSubmission,
	"FEE_PAYMENT_CONFIRMATION":    authz.ActionConfirmFeePayment,
	"RESULT_RELEASE_APPROVAL":     authz.ActionReleaseResults,
	"MARK_AMENDMENT_APPROVAL":     authz.ActionAmendMark,
	"STAFF_DEACTIVATION_APPROVAL": authz.ActionDeactivateStaff,
	"TEACHER_ASSIGNMENT_APPROVAL": authz.ActionAssignTeacher,
}

// ActionForType returns the action implied by approving the given escalation
// type, if one is known.
func ActionForType(escalationType string) (authz.ActionKind, bool) {
	kind, ok := typeActions[strings.ToUpper(strings.TrimSpace(escalationType))]
	return kind, ok
}

// Infer suggests an action for an escalation given its type and the authority's
// decision text. It returns false unless the text is affirmative and the type
// maps to a known action.
func Infer(escalationType, decisionText string) (authz.ActionKind, bool) {
	if !Affirmative(decisionText) {
		return "", false
	}
	return ActionForType(escalationType)
}
