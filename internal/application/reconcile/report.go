package reconcile

import (
	"time"

	"go.uber.org/zap"
)

// Outcome is the bucket a row terminates in
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeError     Outcome = "error"
)

// StageHint is the approver identity a row gave for one stage
type StageHint struct {
	Stage          string `json:"stage"`
	EmployeeNumber string `json:"employee_number,omitempty"`
	Name           string `json:"name,omitempty"`
	RawStatus      string `json:"raw_status,omitempty"`
}

// Hints carries the legacy context needed to author a manual override
type Hints struct {
	RequesterEmployeeNumber string      `json:"requester_employee_number,omitempty"`
	RequesterName           string      `json:"requester_name,omitempty"`
	DepartmentCode          string      `json:"department_code,omitempty"`
	DepartmentName          string      `json:"department_name,omitempty"`
	Approvers               []StageHint `json:"approvers,omitempty"`
	Suggestions             []string    `json:"suggestions,omitempty"`
}

// Entry is one classified row
type Entry struct {
	LegacyRecordID string  `json:"legacy_record_id"`
	RequestNumber  string  `json:"request_number,omitempty"`
	LegacyStatus   string  `json:"legacy_status,omitempty"`
	MappedStatus   string  `json:"mapped_status,omitempty"`
	Outcome        Outcome `json:"outcome"`
	Reason         string  `json:"reason,omitempty"`
	Message        string  `json:"message,omitempty"`
	RequestID      int64   `json:"request_id,omitempty"`
	OverrideUsed   bool    `json:"override_used,omitempty"`
	Hints          *Hints  `json:"hints,omitempty"`
}

// DroppedStage records a stage removed from a committed sequence
type DroppedStage struct {
	LegacyRecordID string `json:"legacy_record_id"`
	RequestNumber  string `json:"request_number,omitempty"`
	Stage          string `json:"stage"`
	Reason         string `json:"reason"`
	Message        string `json:"message,omitempty"`
	EmployeeNumber string `json:"employee_number,omitempty"`
	Name           string `json:"name,omitempty"`
}

// EntityCounts counts what a run created, or would create in a dry run
type EntityCounts struct {
	Requests       int `json:"requests"`
	ApprovalSteps  int `json:"approval_steps"`
	Items          int `json:"items"`
	ServeBatches   int `json:"serve_batches"`
	PostingRecords int `json:"posting_records"`
}

// Summary aggregates run-level counters
type Summary struct {
	Fetched       int          `json:"fetched"`
	Targeted      int          `json:"targeted"`
	Processed     int          `json:"processed"`
	Skipped       int          `json:"skipped"`
	AlreadySynced int          `json:"already_synced"`
	Unmatched     int          `json:"unmatched"`
	Errors        int          `json:"errors"`
	StagesDropped int          `json:"stages_dropped"`
	Created       EntityCounts `json:"created"`
	DryRun        bool         `json:"dry_run"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
}

// Result is the structured outcome of one run
type Result struct {
	RunID         string         `json:"run_id"`
	CompanyID     int64          `json:"company_id"`
	Summary       Summary        `json:"summary"`
	Processed     []Entry        `json:"processed"`
	Unmatched     []Entry        `json:"unmatched"`
	Skipped       []Entry        `json:"skipped"`
	Errors        []Entry        `json:"errors"`
	DroppedStages []DroppedStage `json:"dropped_stages"`
}

// classifier buckets rows into the result and logs every outcome
type classifier struct {
	result *Result
	logger *zap.Logger
}

func newClassifier(result *Result, logger *zap.Logger) *classifier {
	return &classifier{result: result, logger: logger}
}

func (c *classifier) processed(e Entry, counts EntityCounts) {
	e.Outcome = OutcomeProcessed
	c.result.Processed = append(c.result.Processed, e)
	c.result.Summary.Processed++
	c.result.Summary.Created.Requests += counts.Requests
	c.result.Summary.Created.ApprovalSteps += counts.ApprovalSteps
	c.result.Summary.Created.Items += counts.Items
	c.result.Summary.Created.ServeBatches += counts.ServeBatches
	c.result.Summary.Created.PostingRecords += counts.PostingRecords

	c.logger.Info("Legacy row processed",
		zap.String("run_id", c.result.RunID),
		zap.String("legacy_record_id", e.LegacyRecordID),
		zap.String("request_number", e.RequestNumber),
		zap.String("mapped_status", e.MappedStatus),
		zap.Int64("request_id", e.RequestID))
}

func (c *classifier) skipped(e Entry) {
	e.Outcome = OutcomeSkipped
	c.result.Skipped = append(c.result.Skipped, e)
	c.result.Summary.Skipped++
	if e.Reason == ReasonAlreadySynced {
		c.result.Summary.AlreadySynced++
	}

	c.logger.Warn("Legacy row skipped",
		zap.String("run_id", c.result.RunID),
		zap.String("legacy_record_id", e.LegacyRecordID),
		zap.String("reason", e.Reason),
		zap.String("message", e.Message))
}

func (c *classifier) unmatched(e Entry) {
	e.Outcome = OutcomeUnmatched
	c.result.Unmatched = append(c.result.Unmatched, e)
	c.result.Summary.Unmatched++

	c.logger.Warn("Legacy row unmatched",
		zap.String("run_id", c.result.RunID),
		zap.String("legacy_record_id", e.LegacyRecordID),
		zap.String("reason", e.Reason),
		zap.String("message", e.Message))
}

func (c *classifier) failed(e Entry) {
	e.Outcome = OutcomeError
	c.result.Errors = append(c.result.Errors, e)
	c.result.Summary.Errors++

	c.logger.Error("Legacy row failed",
		zap.String("run_id", c.result.RunID),
		zap.String("legacy_record_id", e.LegacyRecordID),
		zap.String("reason", e.Reason),
		zap.String("message", e.Message))
}

func (c *classifier) droppedStage(d DroppedStage) {
	c.result.DroppedStages = append(c.result.DroppedStages, d)
	c.result.Summary.StagesDropped++

	c.logger.Warn("Approval stage dropped",
		zap.String("run_id", c.result.RunID),
		zap.String("legacy_record_id", d.LegacyRecordID),
		zap.String("stage", d.Stage),
		zap.String("reason", d.Reason),
		zap.String("message", d.Message))
}
