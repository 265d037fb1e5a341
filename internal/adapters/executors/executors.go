// Package executors contains the domain action executor registry. Each
// privileged action has one executor; real deployments plug in executors that
// call the school information system, while this default set produces
// human-readable summaries for local operation.
package executors

import (
	"context"
	"fmt"

	"github.com/example/regent/internal/core/authz"
	"github.com/example/regent/internal/ports/secondary"
)

// Func adapts a function to the ActionExecutor interface.
type Func func(ctx context.Context, inv secondary.ActionInvocation) (string, error)

// Execute implements secondary.ActionExecutor.
func (f Func) Execute(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
	return f(ctx, inv)
}

// Registry maps action kinds to their executors.
type Registry struct {
	executors map[authz.ActionKind]secondary.ActionExecutor
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[authz.ActionKind]secondary.ActionExecutor)}
}

// Register binds an executor to an action kind, replacing any previous one.
func (r *Registry) Register(kind authz.ActionKind, executor secondary.ActionExecutor) {
	r.executors[kind] = executor
}

// ExecutorFor resolves the executor for an action kind.
func (r *Registry) ExecutorFor(kind authz.ActionKind) (secondary.ActionExecutor, bool) {
	e, ok := r.executors[kind]
	return e, ok
}

// DefaultRegistry returns a registry with the built-in executors for every
// registered action.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(authz.ActionApproveMarkSubmission, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Mark submission workflow %s approved by %s", inv.Params["workflow_id"], inv.DecidedBy), nil
	}))
	r.Register(authz.ActionRejectMarkSubmission, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Mark submission workflow %s rejected by %s", inv.Params["workflow_id"], inv.DecidedBy), nil
	}))
	r.Register(authz.ActionConfirmFeePayment, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Fee payment confirmed for student %s", inv.Params["student_id"]), nil
	}))
	r.Register(authz.ActionReleaseResults, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Results for term %s released", inv.Params["term_id"]), nil
	}))
	r.Register(authz.ActionAmendMark, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Mark amended for student %s in %s", inv.Params["student_id"], inv.Params["subject"]), nil
	}))
	r.Register(authz.ActionDeactivateStaff, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Staff member %s deactivated", inv.Params["staff_id"]), nil
	}))
	r.Register(authz.ActionAssignTeacher, Func(func(ctx context.Context, inv secondary.ActionInvocation) (string, error) {
		return fmt.Sprintf("Teacher %s assigned to class %s", inv.Params["teacher_id"], inv.Params["class_id"]), nil
	}))
	return r
}

// Ensure Registry implements the interface
var _ secondary.ExecutorRegistry = (*Registry)(nil)
