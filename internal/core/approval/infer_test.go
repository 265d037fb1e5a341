package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/regent/internal/core/authz"
)

func TestAffirmative(t *testing.T) {
	affirmative := []string{
		"yes",
		"Yes, go ahead",
		"yes approve it",
		"yep",
		"OK",
		"okay, release them",
		"Approved",
		"approve",
		"Confirmed, thanks",
		"go ahead",
		"proceed",
		"do it",
		"I approve this submission",
		"  yes  ",
	}
	for _, text := range affirmative {
		assert.True(t, Affirmative(text), "expected affirmative: %q", text)
	}

	negative := []string{
		"",
		"   ",
		"no",
		"reject it",
		"not yet",
		"the answer is yes but wait for the board", // "yes" not at the start
		"I do not approve of the formatting but the marks look right",
		"maybe",
		"was this okayed by anyone?",
	}
	for _, text := range negative {
		assert.False(t, Affirmative(text), "expected not affirmative: %q", text)
	}
}

func TestActionForType(t *testing.T) {
	tests := []struct {
		escalationType string
		want           authz.ActionKind
		ok             bool
	}{
		{"MARK_SUBMISSION_APPROVAL", authz.ActionApproveMarkSubmission, true},
		{"mark_submission_approval", authz.ActionApproveMarkSubmission, true},
		{"  FEE_PAYMENT_CONFIRMATION  ", authz.ActionConfirmFeePayment, true},
		{"RESULT_RELEASE_APPROVAL", authz.ActionReleaseResults, true},
		{"STAFF_DEACTIVATION_APPROVAL", authz.ActionDeactivateStaff, true},
		{"SOMETHING_ELSE", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ActionForType(tt.escalationType)
		assert.Equal(t, tt.ok, ok, "type %q", tt.escalationType)
		assert.Equal(t, tt.want, got, "type %q", tt.escalationType)
	}
}

func TestInfer(t *testing.T) {
	t.Run("affirmative text plus known type yields an action", func(t *testing.T) {
		kind, ok := Infer("MARK_SUBMISSION_APPROVAL", "yes approve it")
		assert.True(t, ok)
		assert.Equal(t, authz.ActionApproveMarkSubmission, kind)
	})

	t.Run("non-affirmative text yields nothing even for a known type", func(t *testing.T) {
		_, ok := Infer("MARK_SUBMISSION_APPROVAL", "reject it, the marks are wrong")
		assert.False(t, ok)
	})

	t.Run("affirmative text with an unknown type yields nothing", func(t *testing.T) {
		_, ok := Infer("CUSTOM_ESCALATION", "yes")
		assert.False(t, ok)
	})
}
