package workflow

import (
	"strings"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// Stage is one of the four fixed approval checkpoints
type Stage int

const (
	StageReview Stage = iota
	StageBudget
	StageRecommending
	StageFinal
)

// StageCount is the number of fixed stages
const StageCount = 4

// Stages lists every stage in workflow order
var Stages = [StageCount]Stage{StageReview, StageBudget, StageRecommending, StageFinal}

var stageNames = [StageCount]string{
	entity.StageReview,
	entity.StageBudget,
	entity.StageRecommending,
	entity.StageFinal,
}

var stageKeys = [StageCount]string{
	"review",
	"budget_approval",
	"recommending_approval",
	"final_approval",
}

// Name returns the canonical stage name stored on approval steps
func (s Stage) Name() string {
	if s < 0 || int(s) >= StageCount {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Key returns the field prefix the legacy export uses for the stage
func (s Stage) Key() string {
	if s < 0 || int(s) >= StageCount {
		return ""
	}
	return stageKeys[s]
}

// String returns the stage name
func (s Stage) String() string {
	return s.Name()
}

// StageByKey looks a stage up by its canonical name or legacy key, case-insensitively
func StageByKey(key string) (Stage, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range Stages {
		if k == stageKeys[s] || k == strings.ToLower(stageNames[s]) {
			return s, true
		}
	}
	switch k {
	case "budget":
		return StageBudget, true
	case "recommending", "rec":
		return StageRecommending, true
	case "final":
		return StageFinal, true
	}
	return 0, false
}

// ExplicitStatus is a per-stage status recorded by the legacy system
type ExplicitStatus int

const (
	ExplicitNone ExplicitStatus = iota
	ExplicitApproved
	ExplicitDisapproved
	ExplicitOther
)

// ParseExplicitStatus interprets a raw per-stage status value
func ParseExplicitStatus(raw string) ExplicitStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return ExplicitNone
	case "APPROVED", "APPROVE", "RECOMMENDED", "REVIEWED", "DONE", "YES", "Y":
		return ExplicitApproved
	case "DISAPPROVED", "DISAPPROVE", "REJECTED", "REJECT", "DENIED", "DECLINED", "NO", "N":
		return ExplicitDisapproved
	default:
		return ExplicitOther
	}
}
