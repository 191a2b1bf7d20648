package workflow

import "github.com/garyjia/workflow-reconciler/internal/domain/entity"

// StepState is the status of one approval step as tracked by a StepMachine
type StepState string

const (
	StepWaiting  StepState = entity.StepStatusWaiting
	StepPending  StepState = entity.StepStatusPending
	StepApproved StepState = entity.StepStatusApproved
	StepRejected StepState = entity.StepStatusRejected
	StepSkipped  StepState = entity.StepStatusSkipped
)

// IsValid returns true for the known step states
func (s StepState) IsValid() bool {
	switch s {
	case StepWaiting, StepPending, StepApproved, StepRejected, StepSkipped:
		return true
	}
	return false
}

// IsTerminal returns true once a step can no longer change
func (s StepState) IsTerminal() bool {
	return s == StepApproved || s == StepRejected || s == StepSkipped
}

// String returns the string representation of the state
func (s StepState) String() string {
	return string(s)
}

// Trigger represents an event that moves a step between states
type Trigger string

const (
	TriggerActivate Trigger = "ACTIVATE"
	TriggerApprove  Trigger = "APPROVE"
	TriggerReject   Trigger = "REJECT"
	TriggerSkip     Trigger = "SKIP"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// StepMachine tracks one step's state and validates transitions
type StepMachine interface {
	// State returns the current state
	State() StepState

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, transitioning to the new state if allowed
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}
