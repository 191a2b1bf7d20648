package workflow

import (
	"fmt"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// ReplayPlan drives a step machine from WAITING to each step's planned state.
// For requests that entered approval, a step may only activate once the step
// before it is approved, and only steps after a rejection may be skipped.
func ReplayPlan(status string, plan Plan) error {
	if plan.RequiredSteps != len(plan.Steps) {
		return fmt.Errorf("%w: %d required steps for %d planned", ErrInconsistentChain, plan.RequiredSteps, len(plan.Steps))
	}

	sequential := status == entity.RequestStatusPendingApproval ||
		status == entity.RequestStatusApproved ||
		status == entity.RequestStatusRejected

	// the virtual step before the first one counts as approved
	prev := StepApproved
	builder := NewBuilder()
	builder.Configure(StepWaiting).
		PermitIf(TriggerActivate, StepPending, func() bool { return !sequential || prev == StepApproved }).
		PermitIf(TriggerSkip, StepSkipped, func() bool { return !sequential || prev == StepRejected || prev == StepSkipped })
	builder.Configure(StepPending).
		Permit(TriggerApprove, StepApproved).
		Permit(TriggerReject, StepRejected)

	var pending, rejected []int
	for i, step := range plan.Steps {
		if step.Number != i+1 {
			return fmt.Errorf("%w: step %d numbered %d", ErrInconsistentChain, i+1, step.Number)
		}
		target := StepState(step.Status)
		if !target.IsValid() {
			return fmt.Errorf("%w: step %d has status %q", ErrInconsistentChain, step.Number, step.Status)
		}

		m := builder.Build(StepWaiting)
		for _, trigger := range triggersTo(target) {
			if err := m.Fire(trigger); err != nil {
				return fmt.Errorf("%w: step %d: %w", ErrInconsistentChain, step.Number, err)
			}
		}

		switch target {
		case StepPending:
			pending = append(pending, step.Number)
		case StepRejected:
			rejected = append(rejected, step.Number)
		}
		prev = target
	}

	return checkCurrentStep(status, plan, pending, rejected)
}

func checkCurrentStep(status string, plan Plan, pending, rejected []int) error {
	want := 0
	switch status {
	case entity.RequestStatusPendingApproval:
		if len(pending) != 1 {
			return fmt.Errorf("%w: %d pending steps", ErrInconsistentChain, len(pending))
		}
		want = pending[0]
	case entity.RequestStatusApproved:
		want = len(plan.Steps)
	case entity.RequestStatusRejected:
		if len(rejected) != 1 {
			return fmt.Errorf("%w: %d rejected steps", ErrInconsistentChain, len(rejected))
		}
		want = rejected[0]
	default:
		if len(pending) > 0 {
			return fmt.Errorf("%w: pending step on %s request", ErrInconsistentChain, status)
		}
	}

	got := 0
	if plan.CurrentStep != nil {
		got = *plan.CurrentStep
	}
	if got != want {
		return fmt.Errorf("%w: current step %d, expected %d", ErrInconsistentChain, got, want)
	}
	return nil
}

func triggersTo(target StepState) []Trigger {
	switch target {
	case StepPending:
		return []Trigger{TriggerActivate}
	case StepApproved:
		return []Trigger{TriggerActivate, TriggerApprove}
	case StepRejected:
		return []Trigger{TriggerActivate, TriggerReject}
	case StepSkipped:
		return []Trigger{TriggerSkip}
	}
	return nil
}
