package workflow

import (
	"time"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// SkippedAfterRejectionRemark is stored on steps following a rejected step
const SkippedAfterRejectionRemark = "Skipped after rejection"

// StageCandidate describes one stage as found in a legacy row,
// after approver resolution.
type StageCandidate struct {
	Stage          Stage
	Present        bool
	Explicit       ExplicitStatus
	ActedAt        *time.Time
	ApproverUserID *int64
	Remarks        string
}

// StepPlan is a step ready to be persisted
type StepPlan struct {
	Number         int
	Stage          Stage
	Status         string
	ApproverUserID *int64
	ActedAt        *time.Time
	ActedBy        *int64
	Remarks        string
}

// Plan is the reconstructed approval chain of a request
type Plan struct {
	Steps         []StepPlan
	RequiredSteps int
	CurrentStep   *int
}

// AssignSteps assigns step statuses to an already-filtered, ordered stage sequence.
// pending is only consulted for PENDING_APPROVAL. Acted steps without a timestamp
// get actedFallback.
func AssignSteps(status string, seq []StageCandidate, pending *Stage, actedFallback time.Time) (Plan, error) {
	plan := Plan{
		Steps:         make([]StepPlan, len(seq)),
		RequiredSteps: len(seq),
	}
	for i, c := range seq {
		plan.Steps[i] = StepPlan{
			Number:         i + 1,
			Stage:          c.Stage,
			ApproverUserID: c.ApproverUserID,
			Remarks:        c.Remarks,
		}
	}

	switch status {
	case entity.RequestStatusPendingApproval:
		idx := indexOfStage(seq, pending)
		if idx < 0 {
			return Plan{}, ErrPendingWithoutCurrentStep
		}
		for i := range plan.Steps {
			switch {
			case i < idx:
				plan.markActed(i, seq[i], entity.StepStatusApproved, actedFallback)
			case i == idx:
				plan.Steps[i].Status = entity.StepStatusPending
			default:
				plan.Steps[i].Status = entity.StepStatusWaiting
			}
		}
		plan.CurrentStep = intPtr(idx + 1)

	case entity.RequestStatusApproved:
		for i := range plan.Steps {
			plan.markActed(i, seq[i], entity.StepStatusApproved, actedFallback)
		}
		if len(seq) > 0 {
			plan.CurrentStep = intPtr(len(seq))
		}

	case entity.RequestStatusRejected:
		if len(seq) == 0 {
			return Plan{}, ErrRejectedWithoutSteps
		}
		idx := rejectionIndex(seq)
		for i := range plan.Steps {
			switch {
			case i < idx:
				plan.markActed(i, seq[i], entity.StepStatusApproved, actedFallback)
			case i == idx:
				plan.markActed(i, seq[i], entity.StepStatusRejected, actedFallback)
			default:
				plan.Steps[i].Status = entity.StepStatusSkipped
				plan.Steps[i].Remarks = SkippedAfterRejectionRemark
			}
		}
		plan.CurrentStep = intPtr(idx + 1)

	default:
		for i, c := range seq {
			switch c.Explicit {
			case ExplicitApproved:
				plan.markActed(i, c, entity.StepStatusApproved, actedFallback)
			case ExplicitDisapproved:
				plan.markActed(i, c, entity.StepStatusRejected, actedFallback)
			default:
				plan.Steps[i].Status = entity.StepStatusSkipped
			}
		}
	}

	return plan, nil
}

// markActed sets an acted status along with its timestamp and actor
func (p *Plan) markActed(i int, c StageCandidate, status string, fallback time.Time) {
	step := &p.Steps[i]
	step.Status = status
	if c.ActedAt != nil {
		t := *c.ActedAt
		step.ActedAt = &t
	} else if !fallback.IsZero() {
		t := fallback
		step.ActedAt = &t
	}
	step.ActedBy = c.ApproverUserID
}

// rejectionIndex returns the first explicitly disapproved stage, else the last one
func rejectionIndex(seq []StageCandidate) int {
	for i, c := range seq {
		if c.Explicit == ExplicitDisapproved {
			return i
		}
	}
	return len(seq) - 1
}

func indexOfStage(seq []StageCandidate, stage *Stage) int {
	if stage == nil {
		return -1
	}
	for i, c := range seq {
		if c.Stage == *stage {
			return i
		}
	}
	return -1
}

func intPtr(v int) *int {
	return &v
}
