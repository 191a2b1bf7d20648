package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/persistence/sqlite"
)

// legacyIDChunk keeps IN lists well below SQLite's bound variable limit
const legacyIDChunk = 500

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// ExistingLegacyIDs returns the subset of legacyIDs already imported for the company
func (r *RequestRepository) ExistingLegacyIDs(ctx context.Context, companyID int64, sourceSystem string, legacyIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)

	for start := 0; start < len(legacyIDs); start += legacyIDChunk {
		end := start + legacyIDChunk
		if end > len(legacyIDs) {
			end = len(legacyIDs)
		}
		chunk := legacyIDs[start:end]

		query := `
			SELECT legacy_record_id
			FROM material_requests
			WHERE company_id = ? AND source_system = ?
			AND legacy_record_id IN (` + placeholders(len(chunk)) + `)
		`
		args := make([]interface{}, 0, len(chunk)+2)
		args = append(args, companyID, sourceSystem)
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := r.executor(ctx).QueryContext(ctx, query, args...)
		if err != nil {
			r.logger.Error("Failed to query synced legacy ids", zap.Error(err))
			return nil, fmt.Errorf("failed to query synced legacy ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan legacy id: %w", err)
			}
			existing[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate legacy ids: %w", err)
		}
	}

	return existing, nil
}

// RequestNumberExists reports whether the request number is taken within the company
func (r *RequestRepository) RequestNumberExists(ctx context.Context, companyID int64, requestNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM material_requests WHERE company_id = ? AND request_number = ?)`

	var exists bool
	if err := r.executor(ctx).QueryRowContext(ctx, query, companyID, requestNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check request number: %w", err)
	}
	return exists, nil
}

// Create inserts the request with its steps and items. Callers wrap it in a
// transaction so the three inserts land together.
func (r *RequestRepository) Create(ctx context.Context, req *entity.MaterialRequest) error {
	query := `
		INSERT INTO material_requests (
			company_id, request_number, series, status,
			requester_employee_id, requester_user_id, department_id,
			date_prepared, date_required,
			freight, discount, subtotal, grand_total,
			required_steps, current_step,
			submitted_at, approved_at, rejected_at, cancelled_at,
			processing_status, posting_status,
			source_system, legacy_record_id, sync_run_id, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	exec := r.executor(ctx)
	result, err := exec.ExecContext(ctx, query,
		req.CompanyID, req.RequestNumber, req.Series, req.Status,
		req.RequesterEmployeeID, req.RequesterUserID, req.DepartmentID,
		req.DatePrepared, req.DateRequired,
		req.Freight, req.Discount, req.Subtotal, req.GrandTotal,
		req.RequiredSteps, nullInt(req.CurrentStep),
		nullTime(req.SubmittedAt), nullTime(req.ApprovedAt), nullTime(req.RejectedAt), nullTime(req.CancelledAt),
		req.ProcessingStatus, req.PostingStatus,
		req.SourceSystem, req.LegacyRecordID, req.SyncRunID, req.CreatedBy, createdAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request",
			zap.String("legacy_record_id", req.LegacyRecordID),
			zap.Error(err))
		return fmt.Errorf("failed to insert request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	req.CreatedAt = createdAt

	for _, step := range req.Steps {
		step.RequestID = id
		res, err := exec.ExecContext(ctx, `
			INSERT INTO approval_steps (
				request_id, step_number, stage_name, approver_user_id,
				status, acted_at, acted_by, remarks
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			step.RequestID, step.StepNumber, step.StageName, nullInt64(step.ApproverUserID),
			step.Status, nullTime(step.ActedAt), nullInt64(step.ActedBy), step.Remarks,
		)
		if err != nil {
			return fmt.Errorf("failed to insert approval step %d: %w", step.StepNumber, err)
		}
		if step.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get approval step id: %w", err)
		}
	}

	for _, item := range req.Items {
		item.RequestID = id
		res, err := exec.ExecContext(ctx, `
			INSERT INTO request_items (
				request_id, line_number, legacy_item_id, item_code, description, unit,
				quantity, unit_price, line_total, served_quantity
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			item.RequestID, item.LineNumber, nullString(item.LegacyItemID), item.ItemCode, item.Description, item.Unit,
			item.Quantity, item.UnitPrice, item.LineTotal, item.ServedQuantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert request item %d: %w", item.LineNumber, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get request item id: %w", err)
		}
	}

	return nil
}

// CreateServeBatch inserts a serve batch and its items
func (r *RequestRepository) CreateServeBatch(ctx context.Context, batch *entity.ServeBatch) error {
	exec := r.executor(ctx)
	res, err := exec.ExecContext(ctx, `
		INSERT INTO serve_batches (request_id, batch_no, served_by, served_at, is_final)
		VALUES (?, ?, ?, ?, ?)
	`, batch.RequestID, batch.BatchNo, batch.ServedBy, batch.ServedAt, batch.IsFinal)
	if err != nil {
		r.logger.Error("Failed to create serve batch", zap.Int64("request_id", batch.RequestID), zap.Error(err))
		return fmt.Errorf("failed to insert serve batch: %w", err)
	}
	if batch.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get serve batch id: %w", err)
	}

	for _, item := range batch.Items {
		item.ServeBatchID = batch.ID
		res, err := exec.ExecContext(ctx, `
			INSERT INTO serve_batch_items (serve_batch_id, request_item_id, served_quantity)
			VALUES (?, ?, ?)
		`, item.ServeBatchID, item.RequestItemID, item.ServedQuantity)
		if err != nil {
			return fmt.Errorf("failed to insert serve batch item: %w", err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get serve batch item id: %w", err)
		}
	}
	return nil
}

// CreatePostingRecord inserts a posting record
func (r *RequestRepository) CreatePostingRecord(ctx context.Context, record *entity.PostingRecord) error {
	res, err := r.executor(ctx).ExecContext(ctx, `
		INSERT INTO posting_records (request_id, reference, posted_by, posted_at)
		VALUES (?, ?, ?, ?)
	`, record.RequestID, record.Reference, record.PostedBy, record.PostedAt)
	if err != nil {
		r.logger.Error("Failed to create posting record", zap.Int64("request_id", record.RequestID), zap.Error(err))
		return fmt.Errorf("failed to insert posting record: %w", err)
	}
	if record.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get posting record id: %w", err)
	}
	return nil
}

const requestColumns = `
	id, company_id, request_number, series, status,
	requester_employee_id, requester_user_id, department_id,
	date_prepared, date_required,
	freight, discount, subtotal, grand_total,
	required_steps, current_step,
	submitted_at, approved_at, rejected_at, cancelled_at,
	processing_status, posting_status,
	source_system, legacy_record_id, sync_run_id, created_by, created_at
`

// GetByID retrieves a request with its steps and items
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.MaterialRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM material_requests WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByLegacyID retrieves a request by its provenance key
func (r *RequestRepository) GetByLegacyID(ctx context.Context, companyID int64, sourceSystem, legacyID string) (*entity.MaterialRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM material_requests
		WHERE company_id = ? AND source_system = ? AND legacy_record_id = ?`
	return r.getOne(ctx, query, companyID, sourceSystem, legacyID)
}

// CountByCompany returns the number of requests stored for a company
func (r *RequestRepository) CountByCompany(ctx context.Context, companyID int64) (int, error) {
	var count int
	err := r.executor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM material_requests WHERE company_id = ?`, companyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

func (r *RequestRepository) getOne(ctx context.Context, query string, args ...interface{}) (*entity.MaterialRequest, error) {
	var (
		req                                       entity.MaterialRequest
		currentStep                               sql.NullInt64
		submitted, approved, rejected, cancelled sql.NullTime
	)

	err := r.executor(ctx).QueryRowContext(ctx, query, args...).Scan(
		&req.ID, &req.CompanyID, &req.RequestNumber, &req.Series, &req.Status,
		&req.RequesterEmployeeID, &req.RequesterUserID, &req.DepartmentID,
		&req.DatePrepared, &req.DateRequired,
		&req.Freight, &req.Discount, &req.Subtotal, &req.GrandTotal,
		&req.RequiredSteps, &currentStep,
		&submitted, &approved, &rejected, &cancelled,
		&req.ProcessingStatus, &req.PostingStatus,
		&req.SourceSystem, &req.LegacyRecordID, &req.SyncRunID, &req.CreatedBy, &req.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if currentStep.Valid {
		step := int(currentStep.Int64)
		req.CurrentStep = &step
	}
	req.SubmittedAt = timeFromNull(submitted)
	req.ApprovedAt = timeFromNull(approved)
	req.RejectedAt = timeFromNull(rejected)
	req.CancelledAt = timeFromNull(cancelled)

	if req.Steps, err = r.listSteps(ctx, req.ID); err != nil {
		return nil, err
	}
	if req.Items, err = r.listItems(ctx, req.ID); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) listSteps(ctx context.Context, requestID int64) ([]*entity.ApprovalStep, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, `
		SELECT id, request_id, step_number, stage_name, approver_user_id,
			status, acted_at, acted_by, remarks
		FROM approval_steps
		WHERE request_id = ?
		ORDER BY step_number
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*entity.ApprovalStep
	for rows.Next() {
		var (
			step              entity.ApprovalStep
			approver, actedBy sql.NullInt64
			actedAt           sql.NullTime
		)
		if err := rows.Scan(
			&step.ID, &step.RequestID, &step.StepNumber, &step.StageName, &approver,
			&step.Status, &actedAt, &actedBy, &step.Remarks,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		step.ApproverUserID = int64FromNull(approver)
		step.ActedBy = int64FromNull(actedBy)
		step.ActedAt = timeFromNull(actedAt)
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

func (r *RequestRepository) listItems(ctx context.Context, requestID int64) ([]*entity.RequestItem, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, `
		SELECT id, request_id, line_number, legacy_item_id, item_code, description, unit,
			quantity, unit_price, line_total, served_quantity
		FROM request_items
		WHERE request_id = ?
		ORDER BY line_number
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list request items: %w", err)
	}
	defer rows.Close()

	var items []*entity.RequestItem
	for rows.Next() {
		var (
			item     entity.RequestItem
			legacyID sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.RequestID, &item.LineNumber, &legacyID, &item.ItemCode, &item.Description, &item.Unit,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.ServedQuantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request item: %w", err)
		}
		item.LegacyItemID = legacyID.String
		items = append(items, &item)
	}
	return items, rows.Err()
}

// executor returns the transaction carried by ctx, or the database
func (r *RequestRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
