package reconcile

import "github.com/garyjia/workflow-reconciler/internal/domain/workflow"

// Skip reasons
const (
	ReasonAlreadySynced                   = "ALREADY_SYNCED"
	ReasonMissingLegacyRecordID           = "MISSING_LEGACY_RECORD_ID"
	ReasonDuplicateInBatch                = "DUPLICATE_IN_BATCH"
	ReasonUnsupportedStatus               = "UNSUPPORTED_STATUS"
	ReasonInvalidDatePrepared             = "INVALID_DATE_PREPARED"
	ReasonInvalidDateRequired             = "INVALID_DATE_REQUIRED"
	ReasonNoValidItems                    = "NO_VALID_ITEMS"
	ReasonPendingStatusWithoutCurrentStep = "PENDING_STATUS_WITHOUT_CURRENT_STEP"
	ReasonRejectedWithoutStages           = "REJECTED_WITHOUT_STAGES"
)

// Unmatched reasons
const (
	ReasonRequesterEmployeeNumberMissing = "REQUESTER_EMPLOYEE_NUMBER_MISSING"
	ReasonRequesterNotFound              = "REQUESTER_NOT_FOUND"
	ReasonAmbiguousRequester             = "AMBIGUOUS_REQUESTER_EMPLOYEE_NUMBER_MATCH"
	ReasonRequesterHasNoLinkedUser       = "REQUESTER_HAS_NO_LINKED_USER"
	ReasonDepartmentNotFound             = "DEPARTMENT_NOT_FOUND"
	ReasonAmbiguousDepartmentCode        = "AMBIGUOUS_DEPARTMENT_CODE_MATCH"
	ReasonAmbiguousDepartmentName        = "AMBIGUOUS_DEPARTMENT_NAME_MATCH"
	ReasonDepartmentOverrideNotFound     = "DEPARTMENT_OVERRIDE_NOT_FOUND"
)

// Approver tier outcomes, reported as the message of stage-level reasons
const (
	ApproverIdentityMissing         = "APPROVER_IDENTITY_MISSING"
	ApproverNotFound                = "APPROVER_NOT_FOUND"
	ApproverAmbiguousEmployeeNumber = "AMBIGUOUS_APPROVER_EMPLOYEE_NUMBER_MATCH"
	ApproverAmbiguousName           = "AMBIGUOUS_APPROVER_NAME_MATCH"
)

// Error reasons
const (
	ReasonRequestNumberExhausted = "REQUEST_NUMBER_EXHAUSTED"
	ReasonUnexpectedError        = "UNEXPECTED_ERROR"
)

// PendingStageNotResolved is the unmatched reason for an unresolvable pending stage
func PendingStageNotResolved(stage workflow.Stage) string {
	return "PENDING_STAGE_NOT_RESOLVED_" + stage.Name()
}

// StageApproverNotResolved is the reason recorded when a non-pending stage cannot be resolved
func StageApproverNotResolved(stage workflow.Stage) string {
	return "STAGE_APPROVER_NOT_RESOLVED_" + stage.Name()
}
