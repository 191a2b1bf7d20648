package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// StageDropPolicy decides what happens to a non-pending stage whose approver
// cannot be resolved
type StageDropPolicy string

const (
	// StageDropPolicyDrop removes the stage and still imports the row
	StageDropPolicyDrop StageDropPolicy = "drop"
	// StageDropPolicyUnmatched classifies the whole row as unmatched
	StageDropPolicyUnmatched StageDropPolicy = "unmatched"
)

// ParseStageDropPolicy accepts "drop" or "unmatched"; anything else is an error
func ParseStageDropPolicy(s string) (StageDropPolicy, error) {
	switch p := StageDropPolicy(s); p {
	case StageDropPolicyDrop, StageDropPolicyUnmatched:
		return p, nil
	case "":
		return StageDropPolicyDrop, nil
	}
	return "", fmt.Errorf("unknown stage drop policy %q", s)
}

// reconstruction is the approval chain rebuilt for one row
type reconstruction struct {
	Legacy  workflow.LegacyStatus
	Status  string
	Pending *workflow.Stage
	Plan    workflow.Plan
	Dropped []DroppedStage
}

// stageReconstructor binds extracted stage hints to resolved approvers and the
// pure step assignment
type stageReconstructor struct {
	approvers *ApproverResolver
	policy    StageDropPolicy
}

// mapStatus maps the row status, reporting a skip when it is unsupported
func mapStatus(h *rowHints) (workflow.LegacyStatus, string, error) {
	legacy := workflow.ParseLegacyStatus(h.RawStatus)
	final := h.Stages[workflow.StageFinal]
	finalPresent := final.hasData() || legacy.ImpliesStage(workflow.StageFinal)

	status, err := workflow.MapStatus(legacy, finalPresent, final.Explicit)
	if err != nil {
		return legacy, "", skipRow(ReasonUnsupportedStatus, "legacy status %q is not supported", h.RawStatus)
	}
	return legacy, status, nil
}

// reconstruct builds the step plan. Row-level failures are returned as *rowError.
func (r *stageReconstructor) reconstruct(h *rowHints, legacy workflow.LegacyStatus, status string, actedFallback time.Time) (*reconstruction, error) {
	out := &reconstruction{Legacy: legacy, Status: status}

	final := h.Stages[workflow.StageFinal]
	finalPresent := final.hasData() || legacy.ImpliesStage(workflow.StageFinal)
	if status == entity.RequestStatusPendingApproval {
		stage, ok := legacy.PendingStage(finalPresent)
		if !ok {
			return nil, skipRow(ReasonPendingStatusWithoutCurrentStep, "status %s has no pending stage", legacy)
		}
		out.Pending = &stage
	}

	seq := make([]workflow.StageCandidate, 0, workflow.StageCount)
	for _, stage := range workflow.Stages {
		hint := h.Stages[stage]
		if !hint.hasData() && !legacy.ImpliesStage(stage) {
			continue
		}

		candidate := workflow.StageCandidate{
			Stage:    stage,
			Present:  true,
			Explicit: hint.Explicit,
			ActedAt:  hint.ActedAt,
			Remarks:  hint.Remarks,
		}

		outcome := ApproverIdentityMissing
		if hint.hasIdentity() {
			var userID int64
			userID, outcome = r.approvers.Resolve(hint.EmployeeNumber, hint.Name)
			if outcome == "" {
				candidate.ApproverUserID = &userID
			}
		} else if out.Pending != nil && stage > *out.Pending {
			outcome = ""
		}

		if outcome != "" {
			if out.Pending != nil && stage == *out.Pending {
				return nil, unmatchedRow(PendingStageNotResolved(stage), "%s", outcome)
			}
			if r.policy == StageDropPolicyUnmatched {
				return nil, unmatchedRow(StageApproverNotResolved(stage), "%s", outcome)
			}
			out.Dropped = append(out.Dropped, DroppedStage{
				LegacyRecordID: h.LegacyID,
				Stage:          stage.Name(),
				Reason:         StageApproverNotResolved(stage),
				Message:        outcome,
				EmployeeNumber: hint.EmployeeNumber,
				Name:           hint.Name,
			})
			continue
		}
		seq = append(seq, candidate)
	}

	plan, err := workflow.AssignSteps(status, seq, out.Pending, actedFallback)
	if errors.Is(err, workflow.ErrRejectedWithoutSteps) {
		return nil, skipRow(ReasonRejectedWithoutStages, "%v (%d stages dropped)", err, len(out.Dropped))
	}
	if err != nil {
		return nil, skipRow(ReasonPendingStatusWithoutCurrentStep, "%v", err)
	}
	if err := workflow.ReplayPlan(status, plan); err != nil {
		return nil, err
	}
	out.Plan = plan
	return out, nil
}

// lifecycle holds the request-level timestamps derived from the plan
type lifecycle struct {
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	CancelledAt *time.Time
}

func deriveLifecycle(status string, plan workflow.Plan, prepared time.Time, cancelled *time.Time) lifecycle {
	var lc lifecycle
	if status != entity.RequestStatusDraft {
		lc.SubmittedAt = timePtr(prepared)
	}

	switch status {
	case entity.RequestStatusApproved:
		for i := len(plan.Steps) - 1; i >= 0; i-- {
			step := plan.Steps[i]
			if step.Status == entity.StepStatusApproved && step.ActedAt != nil {
				lc.ApprovedAt = timePtr(*step.ActedAt)
				break
			}
		}
		if lc.ApprovedAt == nil {
			lc.ApprovedAt = timePtr(prepared)
		}
	case entity.RequestStatusRejected:
		lc.RejectedAt = timePtr(prepared)
		for _, step := range plan.Steps {
			if step.Status == entity.StepStatusRejected && step.ActedAt != nil {
				lc.RejectedAt = timePtr(*step.ActedAt)
				break
			}
		}
	case entity.RequestStatusCancelled:
		if cancelled != nil {
			lc.CancelledAt = timePtr(*cancelled)
		} else {
			lc.CancelledAt = timePtr(prepared)
		}
	}
	return lc
}

func timePtr(t time.Time) *time.Time {
	return &t
}
