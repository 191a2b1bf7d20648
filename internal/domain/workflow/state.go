package workflow

import "strings"

// LegacyStatus is a status code as exported by the legacy MRS system
type LegacyStatus string

const (
	LegacyDraft                 LegacyStatus = "DRAFT"
	LegacyForEdit               LegacyStatus = "FOR_EDIT"
	LegacyCancelled             LegacyStatus = "CANCELLED"
	LegacyDisapproved           LegacyStatus = "DISAPPROVED"
	LegacyForReview             LegacyStatus = "FOR_REVIEW"
	LegacyPendingBudgetApproval LegacyStatus = "PENDING_BUDGET_APPROVAL"
	LegacyForRecApproval        LegacyStatus = "FOR_REC_APPROVAL"
	LegacyRecApproved           LegacyStatus = "REC_APPROVED"
	LegacyForFinalApproval      LegacyStatus = "FOR_FINAL_APPROVAL"
	LegacyFinalApproved         LegacyStatus = "FINAL_APPROVED"
	LegacyForServing            LegacyStatus = "FOR_SERVING"
	LegacyServed                LegacyStatus = "SERVED"
	LegacyForPosting            LegacyStatus = "FOR_POSTING"
	LegacyPosted                LegacyStatus = "POSTED"
	LegacyReceived              LegacyStatus = "RECEIVED"
	LegacyAcknowledged          LegacyStatus = "ACKNOWLEDGED"
	LegacyDeployed              LegacyStatus = "DEPLOYED"
	LegacyTransmitted           LegacyStatus = "TRANSMITTED"
)

var pendingStatuses = map[LegacyStatus]Stage{
	LegacyForReview:             StageReview,
	LegacyPendingBudgetApproval: StageBudget,
	LegacyForRecApproval:        StageRecommending,
	LegacyForFinalApproval:      StageFinal,
	LegacyRecApproved:           StageFinal,
}

var approvedFamily = map[LegacyStatus]bool{
	LegacyFinalApproved: true,
	LegacyForServing:    true,
	LegacyServed:        true,
	LegacyForPosting:    true,
	LegacyPosted:        true,
	LegacyReceived:      true,
	LegacyAcknowledged:  true,
	LegacyDeployed:      true,
	LegacyTransmitted:   true,
}

var fulfilledStatuses = map[LegacyStatus]bool{
	LegacyServed:       true,
	LegacyForPosting:   true,
	LegacyPosted:       true,
	LegacyReceived:     true,
	LegacyAcknowledged: true,
	LegacyDeployed:     true,
	LegacyTransmitted:  true,
}

var postedStatuses = map[LegacyStatus]bool{
	LegacyPosted:       true,
	LegacyReceived:     true,
	LegacyAcknowledged: true,
	LegacyDeployed:     true,
	LegacyTransmitted:  true,
}

// ParseLegacyStatus trims and uppercases a raw legacy status code
func ParseLegacyStatus(raw string) LegacyStatus {
	return LegacyStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// String returns the string representation of the status
func (s LegacyStatus) String() string {
	return string(s)
}

// IsPending returns true for statuses awaiting some approval stage
func (s LegacyStatus) IsPending() bool {
	_, ok := pendingStatuses[s]
	return ok
}

// IsApprovedFamily returns true for statuses past final approval
func (s LegacyStatus) IsApprovedFamily() bool {
	return approvedFamily[s]
}

// ImpliesFulfillment returns true when the legacy request was fully served
func (s LegacyStatus) ImpliesFulfillment() bool {
	return fulfilledStatuses[s]
}

// ImpliesPosting returns true when the legacy request was posted downstream
func (s LegacyStatus) ImpliesPosting() bool {
	return postedStatuses[s]
}

// ImpliesStage returns true when the status alone proves the stage existed.
// REC_APPROVED implies nothing: its Final stage only exists when the row carries it.
func (s LegacyStatus) ImpliesStage(stage Stage) bool {
	if s == LegacyRecApproved {
		return false
	}
	if pending, ok := pendingStatuses[s]; ok && pending == stage {
		return true
	}
	if stage != StageFinal {
		return false
	}
	switch s {
	case LegacyForRecApproval, LegacyForFinalApproval:
		return true
	}
	return s.IsApprovedFamily()
}

// PendingStage returns the stage awaiting action for this status.
// REC_APPROVED only has a pending stage when the Final stage is present.
func (s LegacyStatus) PendingStage(finalPresent bool) (Stage, bool) {
	stage, ok := pendingStatuses[s]
	if !ok {
		return 0, false
	}
	if s == LegacyRecApproved && !finalPresent {
		return 0, false
	}
	return stage, true
}
