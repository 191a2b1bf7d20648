package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

func testApprovers() *ApproverResolver {
	account := func(id int64, number, first, last string) *entity.WorkflowAccount {
		return &entity.WorkflowAccount{
			Account:  entity.Account{ID: id, Active: true, WorkflowAccess: true},
			Employee: &entity.Employee{EmployeeNumber: number, FirstName: first, LastName: last},
		}
	}
	return NewApproverResolver([]*entity.WorkflowAccount{
		account(11, "R-1", "Rita", "Lim"),
		account(12, "B-1", "Bob", "Tan"),
		account(13, "C-1", "Cora", "Uy"),
		account(14, "F-1", "Fe", "Go"),
	})
}

func hintsWith(status string, stages map[workflow.Stage]stageHint) *rowHints {
	h := &rowHints{LegacyID: "L-1", RawStatus: status}
	for s, hint := range stages {
		h.Stages[s] = hint
	}
	return h
}

func requireRowError(t *testing.T, err error, outcome Outcome, reason string) *rowError {
	t.Helper()
	var rowErr *rowError
	require.True(t, errors.As(err, &rowErr), "expected row error, got %v", err)
	assert.Equal(t, outcome, rowErr.Outcome)
	assert.Equal(t, reason, rowErr.Reason)
	return rowErr
}

func TestParseStageDropPolicy(t *testing.T) {
	p, err := ParseStageDropPolicy("")
	require.NoError(t, err)
	assert.Equal(t, StageDropPolicyDrop, p)

	p, err = ParseStageDropPolicy("unmatched")
	require.NoError(t, err)
	assert.Equal(t, StageDropPolicyUnmatched, p)

	_, err = ParseStageDropPolicy("ignore")
	assert.Error(t, err)
}

func TestMapStatus(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		_, _, err := mapStatus(hintsWith("VOID", nil))
		requireRowError(t, err, OutcomeSkipped, ReasonUnsupportedStatus)
	})

	t.Run("rec approved without final stage", func(t *testing.T) {
		legacy, status, err := mapStatus(hintsWith("rec_approved", nil))
		require.NoError(t, err)
		assert.Equal(t, workflow.LegacyRecApproved, legacy)
		assert.Equal(t, entity.RequestStatusApproved, status)
	})

	t.Run("rec approved awaiting final", func(t *testing.T) {
		h := hintsWith("REC_APPROVED", map[workflow.Stage]stageHint{
			workflow.StageFinal: {EmployeeNumber: "F-1"},
		})
		_, status, err := mapStatus(h)
		require.NoError(t, err)
		assert.Equal(t, entity.RequestStatusPendingApproval, status)
	})
}

func reconstructFor(t *testing.T, policy StageDropPolicy, h *rowHints) (*reconstruction, error) {
	t.Helper()
	legacy, status, err := mapStatus(h)
	require.NoError(t, err)
	r := &stageReconstructor{approvers: testApprovers(), policy: policy}
	return r.reconstruct(h, legacy, status, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestReconstruct_PendingChain(t *testing.T) {
	h := hintsWith("PENDING_BUDGET_APPROVAL", map[workflow.Stage]stageHint{
		workflow.StageReview: {EmployeeNumber: "R-1", Explicit: workflow.ExplicitApproved},
		workflow.StageBudget: {Name: "Tan, Bob"},
		workflow.StageFinal:  {},
	})

	rec, err := reconstructFor(t, StageDropPolicyDrop, h)
	require.NoError(t, err)
	require.NotNil(t, rec.Pending)
	assert.Equal(t, workflow.StageBudget, *rec.Pending)
	assert.Empty(t, rec.Dropped)

	require.Len(t, rec.Plan.Steps, 2)
	assert.Equal(t, entity.StepStatusApproved, rec.Plan.Steps[0].Status)
	assert.Equal(t, entity.StepStatusPending, rec.Plan.Steps[1].Status)
	require.NotNil(t, rec.Plan.Steps[1].ApproverUserID)
	assert.Equal(t, int64(12), *rec.Plan.Steps[1].ApproverUserID)
	require.NotNil(t, rec.Plan.CurrentStep)
	assert.Equal(t, 2, *rec.Plan.CurrentStep)
}

func TestReconstruct_FutureStageWithoutIdentityKept(t *testing.T) {
	h := hintsWith("FOR_FINAL_APPROVAL", map[workflow.Stage]stageHint{
		workflow.StageReview: {EmployeeNumber: "R-1"},
		workflow.StageFinal:  {EmployeeNumber: "F-1"},
	})
	rec, err := reconstructFor(t, StageDropPolicyDrop, h)
	require.NoError(t, err)
	require.Len(t, rec.Plan.Steps, 2)
	assert.Equal(t, entity.StepStatusPending, rec.Plan.Steps[1].Status)

	h = hintsWith("FOR_REC_APPROVAL", map[workflow.Stage]stageHint{
		workflow.StageRecommending: {EmployeeNumber: "C-1"},
	})
	rec, err = reconstructFor(t, StageDropPolicyDrop, h)
	require.NoError(t, err)
	require.Len(t, rec.Plan.Steps, 2)
	assert.Equal(t, entity.StepStatusWaiting, rec.Plan.Steps[1].Status)
	assert.Nil(t, rec.Plan.Steps[1].ApproverUserID)
	assert.Empty(t, rec.Dropped)
}

func TestReconstruct_PendingStageUnresolved(t *testing.T) {
	h := hintsWith("PENDING_BUDGET_APPROVAL", map[workflow.Stage]stageHint{
		workflow.StageBudget: {Name: "Nobody Here"},
	})
	_, err := reconstructFor(t, StageDropPolicyDrop, h)
	rowErr := requireRowError(t, err, OutcomeUnmatched, "PENDING_STAGE_NOT_RESOLVED_BUDGET_APPROVAL")
	assert.Equal(t, ApproverNotFound, rowErr.Message)

	h = hintsWith("FOR_REVIEW", nil)
	_, err = reconstructFor(t, StageDropPolicyDrop, h)
	rowErr = requireRowError(t, err, OutcomeUnmatched, "PENDING_STAGE_NOT_RESOLVED_REVIEW")
	assert.Equal(t, ApproverIdentityMissing, rowErr.Message)
}

func TestReconstruct_DropPolicy(t *testing.T) {
	hints := func() *rowHints {
		return hintsWith("FINAL_APPROVED", map[workflow.Stage]stageHint{
			workflow.StageReview: {EmployeeNumber: "X-9", Name: "Ghost Writer", Explicit: workflow.ExplicitApproved},
			workflow.StageBudget: {Explicit: workflow.ExplicitApproved},
			workflow.StageFinal:  {EmployeeNumber: "F-1", Explicit: workflow.ExplicitApproved},
		})
	}

	t.Run("drop", func(t *testing.T) {
		rec, err := reconstructFor(t, StageDropPolicyDrop, hints())
		require.NoError(t, err)
		require.Len(t, rec.Plan.Steps, 1)
		assert.Equal(t, workflow.StageFinal, rec.Plan.Steps[0].Stage)

		require.Len(t, rec.Dropped, 2)
		assert.Equal(t, entity.StageReview, rec.Dropped[0].Stage)
		assert.Equal(t, ApproverNotFound, rec.Dropped[0].Message)
		assert.Equal(t, "X-9", rec.Dropped[0].EmployeeNumber)
		assert.Equal(t, "L-1", rec.Dropped[0].LegacyRecordID)
		assert.Equal(t, entity.StageBudget, rec.Dropped[1].Stage)
		assert.Equal(t, ApproverIdentityMissing, rec.Dropped[1].Message)
	})

	t.Run("unmatched", func(t *testing.T) {
		_, err := reconstructFor(t, StageDropPolicyUnmatched, hints())
		requireRowError(t, err, OutcomeUnmatched, "STAGE_APPROVER_NOT_RESOLVED_REVIEW")
	})
}

func TestReconstruct_RecApproved(t *testing.T) {
	h := hintsWith("REC_APPROVED", map[workflow.Stage]stageHint{
		workflow.StageRecommending: {EmployeeNumber: "C-1", Explicit: workflow.ExplicitApproved},
	})
	rec, err := reconstructFor(t, StageDropPolicyDrop, h)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, rec.Status)
	assert.Nil(t, rec.Pending)
	require.Len(t, rec.Plan.Steps, 1)
	assert.Equal(t, workflow.StageRecommending, rec.Plan.Steps[0].Stage)
	assert.Equal(t, entity.StepStatusApproved, rec.Plan.Steps[0].Status)

	h = hintsWith("REC_APPROVED", map[workflow.Stage]stageHint{
		workflow.StageRecommending: {EmployeeNumber: "C-1", Explicit: workflow.ExplicitApproved},
		workflow.StageFinal:        {EmployeeNumber: "F-1"},
	})
	rec, err = reconstructFor(t, StageDropPolicyDrop, h)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPendingApproval, rec.Status)
	require.NotNil(t, rec.Pending)
	assert.Equal(t, workflow.StageFinal, *rec.Pending)
	require.Len(t, rec.Plan.Steps, 2)
	assert.Equal(t, entity.StepStatusPending, rec.Plan.Steps[1].Status)
}

func TestReconstruct_RejectedWithoutStages(t *testing.T) {
	_, err := reconstructFor(t, StageDropPolicyDrop, hintsWith("DISAPPROVED", nil))
	requireRowError(t, err, OutcomeSkipped, ReasonRejectedWithoutStages)

	h := hintsWith("DISAPPROVED", map[workflow.Stage]stageHint{
		workflow.StageBudget: {EmployeeNumber: "X-9", Explicit: workflow.ExplicitDisapproved},
	})
	_, err = reconstructFor(t, StageDropPolicyDrop, h)
	requireRowError(t, err, OutcomeSkipped, ReasonRejectedWithoutStages)
}

func TestReconstruct_AmbiguousApprover(t *testing.T) {
	approvers := NewApproverResolver([]*entity.WorkflowAccount{
		{Account: entity.Account{ID: 1}, Employee: &entity.Employee{EmployeeNumber: "7", FirstName: "Ana", LastName: "Cruz"}},
		{Account: entity.Account{ID: 2}, Employee: &entity.Employee{EmployeeNumber: "007", FirstName: "Ann", LastName: "Cruz"}},
	})
	h := hintsWith("FOR_REVIEW", map[workflow.Stage]stageHint{
		workflow.StageReview: {EmployeeNumber: "7"},
	})
	legacy, status, err := mapStatus(h)
	require.NoError(t, err)

	r := &stageReconstructor{approvers: approvers, policy: StageDropPolicyDrop}
	_, err = r.reconstruct(h, legacy, status, time.Time{})
	rowErr := requireRowError(t, err, OutcomeUnmatched, "PENDING_STAGE_NOT_RESOLVED_REVIEW")
	assert.Equal(t, ApproverAmbiguousEmployeeNumber, rowErr.Message)
}

func TestDeriveLifecycle(t *testing.T) {
	prepared := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	acted := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("draft is never submitted", func(t *testing.T) {
		lc := deriveLifecycle(entity.RequestStatusDraft, workflow.Plan{}, prepared, nil)
		assert.Nil(t, lc.SubmittedAt)
		assert.Nil(t, lc.ApprovedAt)
	})

	t.Run("approved takes last acted step", func(t *testing.T) {
		plan := workflow.Plan{Steps: []workflow.StepPlan{
			{Status: entity.StepStatusApproved, ActedAt: &prepared},
			{Status: entity.StepStatusApproved, ActedAt: &acted},
		}}
		lc := deriveLifecycle(entity.RequestStatusApproved, plan, prepared, nil)
		require.NotNil(t, lc.SubmittedAt)
		require.NotNil(t, lc.ApprovedAt)
		assert.True(t, lc.ApprovedAt.Equal(acted))
	})

	t.Run("approved without steps", func(t *testing.T) {
		lc := deriveLifecycle(entity.RequestStatusApproved, workflow.Plan{}, prepared, nil)
		require.NotNil(t, lc.ApprovedAt)
		assert.True(t, lc.ApprovedAt.Equal(prepared))
	})

	t.Run("rejected", func(t *testing.T) {
		plan := workflow.Plan{Steps: []workflow.StepPlan{
			{Status: entity.StepStatusRejected, ActedAt: &acted},
		}}
		lc := deriveLifecycle(entity.RequestStatusRejected, plan, prepared, nil)
		require.NotNil(t, lc.RejectedAt)
		assert.True(t, lc.RejectedAt.Equal(acted))
		assert.Nil(t, lc.ApprovedAt)
	})

	t.Run("cancelled", func(t *testing.T) {
		lc := deriveLifecycle(entity.RequestStatusCancelled, workflow.Plan{}, prepared, &acted)
		require.NotNil(t, lc.CancelledAt)
		assert.True(t, lc.CancelledAt.Equal(acted))

		lc = deriveLifecycle(entity.RequestStatusCancelled, workflow.Plan{}, prepared, nil)
		assert.True(t, lc.CancelledAt.Equal(prepared))
	})
}
