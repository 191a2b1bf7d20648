package entity

// Status constants for MaterialRequest
const (
	RequestStatusDraft           = "DRAFT"
	RequestStatusPendingApproval = "PENDING_APPROVAL"
	RequestStatusApproved        = "APPROVED"
	RequestStatusRejected        = "REJECTED"
	RequestStatusCancelled       = "CANCELLED"
)

// Status constants for ApprovalStep.
// StepStatusWaiting marks a stage queued behind the current PENDING step.
const (
	StepStatusPending  = "PENDING"
	StepStatusWaiting  = "WAITING"
	StepStatusApproved = "APPROVED"
	StepStatusRejected = "REJECTED"
	StepStatusSkipped  = "SKIPPED"
)

// Processing (fulfillment) sub-status constants
const (
	ProcessingStatusForServing      = "FOR_SERVING"
	ProcessingStatusPartiallyServed = "PARTIALLY_SERVED"
	ProcessingStatusServed          = "SERVED"
)

// Posting sub-status constants
const (
	PostingStatusUnposted   = "UNPOSTED"
	PostingStatusForPosting = "FOR_POSTING"
	PostingStatusPosted     = "POSTED"
)

// Stage names, in workflow order
const (
	StageReview       = "REVIEW"
	StageBudget       = "BUDGET_APPROVAL"
	StageRecommending = "RECOMMENDING_APPROVAL"
	StageFinal        = "FINAL_APPROVAL"
)

// SourceSystemLegacyMRS tags requests imported from the legacy MRS system
const SourceSystemLegacyMRS = "LEGACY_MRS"

// QuantityTolerance bounds served quantity comparisons
const QuantityTolerance = 0.0005
