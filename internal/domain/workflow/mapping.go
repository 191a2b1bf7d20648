package workflow

import (
	"fmt"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// MapStatus maps a legacy status code to a canonical request status.
// finalPresent and finalExplicit describe the Final stage and only matter for REC_APPROVED.
func MapStatus(status LegacyStatus, finalPresent bool, finalExplicit ExplicitStatus) (string, error) {
	switch status {
	case LegacyDraft, LegacyForEdit:
		return entity.RequestStatusDraft, nil
	case LegacyCancelled:
		return entity.RequestStatusCancelled, nil
	case LegacyDisapproved:
		return entity.RequestStatusRejected, nil
	case LegacyRecApproved:
		if finalPresent && finalExplicit != ExplicitApproved {
			return entity.RequestStatusPendingApproval, nil
		}
		return entity.RequestStatusApproved, nil
	}

	if status.IsPending() {
		return entity.RequestStatusPendingApproval, nil
	}
	if status.IsApprovedFamily() {
		return entity.RequestStatusApproved, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedStatus, string(status))
}
