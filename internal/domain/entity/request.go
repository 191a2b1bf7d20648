package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialRequest is the canonical multi-stage approval request.
// (CompanyID, SourceSystem, LegacyRecordID) is the provenance key and is unique.
type MaterialRequest struct {
	ID            int64  `json:"id"`
	CompanyID     int64  `json:"company_id"`
	RequestNumber string `json:"request_number"`
	Series        string `json:"series,omitempty"`
	Status        string `json:"status"`

	RequesterEmployeeID int64 `json:"requester_employee_id"`
	RequesterUserID     int64 `json:"requester_user_id"`
	DepartmentID        int64 `json:"department_id"`

	DatePrepared time.Time `json:"date_prepared"`
	DateRequired time.Time `json:"date_required"`

	Freight    decimal.Decimal `json:"freight"`
	Discount   decimal.Decimal `json:"discount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	GrandTotal decimal.Decimal `json:"grand_total"`

	RequiredSteps int  `json:"required_steps"`
	CurrentStep   *int `json:"current_step,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	ProcessingStatus string `json:"processing_status,omitempty"`
	PostingStatus    string `json:"posting_status,omitempty"`

	SourceSystem   string `json:"source_system"`
	LegacyRecordID string `json:"legacy_record_id"`
	SyncRunID      string `json:"sync_run_id"`
	CreatedBy      int64  `json:"created_by"`

	Steps []*ApprovalStep `json:"steps,omitempty"`
	Items []*RequestItem  `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ApprovalStep is one stage of a request's approval chain
type ApprovalStep struct {
	ID             int64      `json:"id"`
	RequestID      int64      `json:"request_id"`
	StepNumber     int        `json:"step_number"`
	StageName      string     `json:"stage_name"`
	ApproverUserID *int64     `json:"approver_user_id,omitempty"`
	Status         string     `json:"status"`
	ActedAt        *time.Time `json:"acted_at,omitempty"`
	ActedBy        *int64     `json:"acted_by,omitempty"`
	Remarks        string     `json:"remarks,omitempty"`
}

// RequestItem is a line item of a request
type RequestItem struct {
	ID             int64               `json:"id"`
	RequestID      int64               `json:"request_id"`
	LineNumber     int                 `json:"line_number"`
	LegacyItemID   string              `json:"legacy_item_id,omitempty"`
	ItemCode       string              `json:"item_code,omitempty"`
	Description    string              `json:"description"`
	Unit           string              `json:"unit"`
	Quantity       decimal.Decimal     `json:"quantity"`
	UnitPrice      decimal.NullDecimal `json:"unit_price"`
	LineTotal      decimal.NullDecimal `json:"line_total"`
	ServedQuantity decimal.Decimal     `json:"served_quantity"`
}

// ServeBatch records a fulfillment of some or all items
type ServeBatch struct {
	ID        int64             `json:"id"`
	RequestID int64             `json:"request_id"`
	BatchNo   string            `json:"batch_no"`
	ServedBy  int64             `json:"served_by"`
	ServedAt  time.Time         `json:"served_at"`
	IsFinal   bool              `json:"is_final"`
	Items     []*ServeBatchItem `json:"items"`
}

// ServeBatchItem is a served quantity against one request item
type ServeBatchItem struct {
	ID             int64           `json:"id"`
	ServeBatchID   int64           `json:"serve_batch_id"`
	RequestItemID  int64           `json:"request_item_id"`
	ServedQuantity decimal.Decimal `json:"served_quantity"`
}

// PostingRecord records a posting to the downstream ledger
type PostingRecord struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	Reference string    `json:"reference"`
	PostedBy  int64     `json:"posted_by"`
	PostedAt  time.Time `json:"posted_at"`
}
