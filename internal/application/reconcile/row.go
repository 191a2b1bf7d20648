package reconcile

import (
	"time"

	"github.com/garyjia/workflow-reconciler/internal/domain/workflow"
)

// Legacy key-paths, first match wins. Export versions disagree on naming.
var (
	pathRecordID       = []string{"id", "mrs_id", "request_id", "legacy_id", "header.id"}
	pathRequestNumber  = []string{"mrs_no", "request_no", "reference_no", "header.mrs_no", "number"}
	pathStatus         = []string{"status", "mrs_status", "header.status"}
	pathSeries         = []string{"series", "mrs_type", "type", "header.series"}
	pathRequesterEmpNo = []string{"requested_by.employee_no", "requested_by.emp_no", "requester.employee_no", "requester_employee_no", "employee_no"}
	pathRequesterName  = []string{"requested_by.name", "requester.name", "requester_name"}
	pathDeptCode       = []string{"department.code", "department_code", "dept_code"}
	pathDeptName       = []string{"department.name", "department_name", "dept_name", "department"}
	pathDatePrepared   = []string{"date_prepared", "prepared_date", "prepared_at", "created_at"}
	pathDateRequired   = []string{"date_required", "required_date", "needed_date"}
	pathFreight        = []string{"freight", "freight_cost"}
	pathDiscount       = []string{"discount", "discount_amount"}
	pathGrandTotal     = []string{"grand_total", "total_amount", "total"}
	pathItems          = []string{"items", "details", "line_items", "mrs_items"}
	pathPostingRef     = []string{"posting_reference", "posting.reference", "po_number"}
	pathPostedAt       = []string{"posted_at", "posting.date", "date_posted"}
	pathServedAt       = []string{"served_at", "date_served"}
	pathCancelledAt    = []string{"cancelled_at", "date_cancelled"}
)

// stagePaths builds the per-stage key-paths for one legacy stage key
type stagePaths struct {
	status, actedAt, empNo, name, remarks []string
}

var stageFieldPaths = func() [workflow.StageCount]stagePaths {
	var out [workflow.StageCount]stagePaths
	for _, s := range workflow.Stages {
		k := s.Key()
		out[s] = stagePaths{
			status:  []string{"approvals." + k + ".status", k + ".status", k + "_status"},
			actedAt: []string{"approvals." + k + ".date", k + ".date", k + ".acted_at", k + "_date", k + "_at"},
			empNo:   []string{"approvals." + k + ".approver.employee_no", k + ".approver.employee_no", k + ".employee_no", k + "_by_employee_no"},
			name:    []string{"approvals." + k + ".approver.name", k + ".approver.name", k + ".name", k + "_by"},
			remarks: []string{"approvals." + k + ".remarks", k + ".remarks", k + "_remarks"},
		}
	}
	return out
}()

// stageHint is what a legacy row says about one approval stage
type stageHint struct {
	RawStatus      string
	Explicit       workflow.ExplicitStatus
	ActedAt        *time.Time
	EmployeeNumber string
	Name           string
	Remarks        string
}

func (h stageHint) hasIdentity() bool {
	return h.EmployeeNumber != "" || h.Name != ""
}

func (h stageHint) hasData() bool {
	return h.Explicit != workflow.ExplicitNone || h.ActedAt != nil || h.hasIdentity()
}

// rowHints is the typed view of a legacy row consumed by the resolvers
type rowHints struct {
	LegacyID                string
	RequestNumber           string
	RawStatus               string
	Series                  string
	RequesterEmployeeNumber string
	RequesterName           string
	DepartmentID            *int64
	DepartmentCode          string
	DepartmentName          string
	Stages                  [workflow.StageCount]stageHint
}

// legacyRecordID extracts the idempotency key of a row
func legacyRecordID(row Row) string {
	id, _ := String(row, pathRecordID...)
	return id
}

func extractHints(row Row) rowHints {
	h := rowHints{LegacyID: legacyRecordID(row)}
	h.RequestNumber, _ = String(row, pathRequestNumber...)
	h.RawStatus, _ = String(row, pathStatus...)
	h.Series, _ = String(row, pathSeries...)
	h.RequesterEmployeeNumber, _ = String(row, pathRequesterEmpNo...)
	h.RequesterName, _ = String(row, pathRequesterName...)
	h.DepartmentCode, _ = String(row, pathDeptCode...)
	h.DepartmentName, _ = String(row, pathDeptName...)

	for _, s := range workflow.Stages {
		p := stageFieldPaths[s]
		var sh stageHint
		sh.RawStatus, _ = String(row, p.status...)
		sh.Explicit = workflow.ParseExplicitStatus(sh.RawStatus)
		if t, found, err := Time(row, p.actedAt...); found && err == nil {
			sh.ActedAt = &t
		}
		sh.EmployeeNumber, _ = String(row, p.empNo...)
		sh.Name, _ = String(row, p.name...)
		sh.Remarks, _ = String(row, p.remarks...)
		h.Stages[s] = sh
	}
	return h
}

// fallbackRequestNumber is used when the legacy row carries no request number
func fallbackRequestNumber(legacyID string) string {
	return "LEGACY-" + legacyID
}
