package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

func TestManualOverride_Validate(t *testing.T) {
	valid := ManualOverride{
		LegacyRecordID: "L-1",
		DepartmentID:   int64Ptr(3),
		Approvers:      map[string]ApproverOverride{"final_approval": {EmployeeNumber: "9"}},
	}
	assert.NoError(t, valid.Validate())

	assert.Error(t, ManualOverride{}.Validate())
	assert.Error(t, ManualOverride{LegacyRecordID: "L-1", DepartmentID: int64Ptr(0)}.Validate())
	assert.Error(t, ManualOverride{
		LegacyRecordID: "L-1",
		Approvers:      map[string]ApproverOverride{"ceo": {Name: "Boss"}},
	}.Validate())
}

func TestOverrides_Apply(t *testing.T) {
	overrides := NewOverrides([]ManualOverride{
		{LegacyRecordID: " "},
		{LegacyRecordID: "L-1", RequesterEmployeeNumber: "old"},
		{
			LegacyRecordID:          "L-1",
			RequesterEmployeeNumber: " 123 ",
			DepartmentCode:          "FIN",
			Approvers: map[string]ApproverOverride{
				"review":  {Name: "Ana Cruz"},
				"unknown": {Name: "ignored"},
				"final":   {},
			},
		},
	})
	require.Len(t, overrides, 1)

	h := rowHints{
		LegacyID:                "L-1",
		RequesterEmployeeNumber: "999",
		DepartmentName:          "Engineering",
	}
	h.Stages[workflow.StageReview] = stageHint{EmployeeNumber: "stale", Name: "Old Name"}
	h.Stages[workflow.StageFinal] = stageHint{EmployeeNumber: "77"}

	assert.True(t, overrides.Apply(&h))
	assert.Equal(t, "123", h.RequesterEmployeeNumber)
	assert.Equal(t, "FIN", h.DepartmentCode)
	assert.Equal(t, "Engineering", h.DepartmentName)
	assert.Nil(t, h.DepartmentID)
	assert.Equal(t, "", h.Stages[workflow.StageReview].EmployeeNumber)
	assert.Equal(t, "Ana Cruz", h.Stages[workflow.StageReview].Name)
	assert.Equal(t, "77", h.Stages[workflow.StageFinal].EmployeeNumber)

	other := rowHints{LegacyID: "L-2", RequesterEmployeeNumber: "5"}
	assert.False(t, overrides.Apply(&other))
	assert.Equal(t, "5", other.RequesterEmployeeNumber)
}
