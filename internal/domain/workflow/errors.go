package workflow

import "errors"

var (
	// ErrUnsupportedStatus is returned when a legacy status has no canonical mapping
	ErrUnsupportedStatus = errors.New("unsupported legacy status")

	// ErrPendingWithoutCurrentStep is returned when a pending request has no pending step
	ErrPendingWithoutCurrentStep = errors.New("pending status without current step")

	// ErrRejectedWithoutSteps is returned when a rejected request has no stage to carry the rejection
	ErrRejectedWithoutSteps = errors.New("rejected status without approval steps")

	// ErrInvalidTransition is returned when a trigger is not configured for the current step state
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrGuardFailed is returned when every transition for a trigger is guarded off
	ErrGuardFailed = errors.New("step transition guard failed")

	// ErrInconsistentChain is returned when a plan cannot be replayed step by step
	ErrInconsistentChain = errors.New("inconsistent approval chain")
)
