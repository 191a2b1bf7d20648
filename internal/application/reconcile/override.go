package reconcile

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// ApproverOverride corrects the approver identity of one stage
type ApproverOverride struct {
	EmployeeNumber string `json:"employee_number,omitempty"`
	Name           string `json:"name,omitempty"`
}

// ManualOverride holds caller-supplied corrections for one legacy record.
// Approvers is keyed by stage key (review, budget_approval, recommending_approval, final_approval).
type ManualOverride struct {
	LegacyRecordID          string                      `json:"legacy_record_id"`
	RequesterEmployeeNumber string                      `json:"requester_employee_number,omitempty"`
	DepartmentID            *int64                      `json:"department_id,omitempty"`
	DepartmentCode          string                      `json:"department_code,omitempty"`
	DepartmentName          string                      `json:"department_name,omitempty"`
	Approvers               map[string]ApproverOverride `json:"approvers,omitempty"`
}

// Validate checks the override is keyed and only names known stages
func (o ManualOverride) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.LegacyRecordID, validation.Required),
		validation.Field(&o.DepartmentID, validation.By(validatePositiveID)),
		validation.Field(&o.Approvers, validation.By(validateApproverKeys)),
	)
}

func validatePositiveID(value interface{}) error {
	if id, _ := value.(*int64); id != nil && *id < 1 {
		return errors.New("must be a positive id")
	}
	return nil
}

func validateApproverKeys(value interface{}) error {
	approvers, _ := value.(map[string]ApproverOverride)
	for key := range approvers {
		if _, ok := workflow.StageByKey(key); !ok {
			return fmt.Errorf("unknown stage %q", key)
		}
	}
	return nil
}

// Overrides is the per-run lookup table of manual corrections, keyed by legacy record id
type Overrides map[string]ManualOverride

// NewOverrides indexes a list of overrides by legacy record id; later entries win
func NewOverrides(list []ManualOverride) Overrides {
	out := make(Overrides, len(list))
	for _, o := range list {
		id := strings.TrimSpace(o.LegacyRecordID)
		if id == "" {
			continue
		}
		out[id] = o
	}
	return out
}

// Apply overlays the override for h's record onto h. Non-empty fields win.
func (o Overrides) Apply(h *rowHints) bool {
	ov, ok := o[h.LegacyID]
	if !ok {
		return false
	}

	if v := strings.TrimSpace(ov.RequesterEmployeeNumber); v != "" {
		h.RequesterEmployeeNumber = v
	}
	if ov.DepartmentID != nil {
		id := *ov.DepartmentID
		h.DepartmentID = &id
	}
	if v := strings.TrimSpace(ov.DepartmentCode); v != "" {
		h.DepartmentCode = v
	}
	if v := strings.TrimSpace(ov.DepartmentName); v != "" {
		h.DepartmentName = v
	}
	for key, a := range ov.Approvers {
		stage, ok := workflow.StageByKey(key)
		if !ok {
			continue
		}
		emp := strings.TrimSpace(a.EmployeeNumber)
		name := strings.TrimSpace(a.Name)
		if emp == "" && name == "" {
			continue
		}
		// A corrected identity replaces both hints so a stale one cannot win the tier order.
		h.Stages[stage].EmployeeNumber = emp
		h.Stages[stage].Name = name
	}
	return true
}
