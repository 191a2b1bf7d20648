package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/workflow-reconciler/internal/testutil"
)

func newRequest(companyID, employeeID, userID, deptID int64, legacyID, number string) *entity.MaterialRequest {
	prepared := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	current := 2
	approver := userID
	return &entity.MaterialRequest{
		CompanyID:           companyID,
		RequestNumber:       number,
		Status:              entity.RequestStatusPendingApproval,
		RequesterEmployeeID: employeeID,
		RequesterUserID:     userID,
		DepartmentID:        deptID,
		DatePrepared:        prepared,
		DateRequired:        prepared.AddDate(0, 0, 7),
		Freight:             decimal.RequireFromString("10.50"),
		Subtotal:            decimal.RequireFromString("200.00"),
		GrandTotal:          decimal.RequireFromString("210.50"),
		RequiredSteps:       2,
		CurrentStep:         &current,
		SubmittedAt:         &prepared,
		SourceSystem:        entity.SourceSystemLegacyMRS,
		LegacyRecordID:      legacyID,
		SyncRunID:           "run-1",
		CreatedBy:           userID,
		Steps: []*entity.ApprovalStep{
			{StepNumber: 1, StageName: entity.StageReview, ApproverUserID: &approver, Status: entity.StepStatusApproved, ActedAt: &prepared, ActedBy: &approver},
			{StepNumber: 2, StageName: entity.StageFinal, ApproverUserID: &approver, Status: entity.StepStatusPending},
		},
		Items: []*entity.RequestItem{
			{
				LineNumber:     1,
				LegacyItemID:   "L-1",
				Description:    "Bond paper",
				Unit:           "REAM",
				Quantity:       decimal.RequireFromString("4.000"),
				UnitPrice:      decimal.NewNullDecimal(decimal.RequireFromString("50.00")),
				LineTotal:      decimal.NewNullDecimal(decimal.RequireFromString("200.00")),
				ServedQuantity: decimal.RequireFromString("1.500"),
			},
		},
	}
}

func seedRequester(t *testing.T, dir *testutil.Directory) (empID, userID, deptID int64) {
	deptID = dir.Department(1, "ENG", "Engineering")
	empID = dir.Employee(1, "1001", "Ana", "Reyes", deptID)
	userID = dir.Account(1, empID, "ana", true)
	return empID, userID, deptID
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	dir := testutil.NewDirectory(t, db)
	empID, userID, deptID := seedRequester(t, dir)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	req := newRequest(1, empID, userID, deptID, "MRS-1", "2024-0001")
	require.NoError(t, repo.Create(ctx, req))
	assert.NotZero(t, req.ID)
	for _, s := range req.Steps {
		assert.NotZero(t, s.ID)
		assert.Equal(t, req.ID, s.RequestID)
	}
	assert.NotZero(t, req.Items[0].ID)

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-0001", got.RequestNumber)
	assert.True(t, got.GrandTotal.Equal(decimal.RequireFromString("210.50")))
	require.NotNil(t, got.CurrentStep)
	assert.Equal(t, 2, *got.CurrentStep)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, entity.StepStatusPending, got.Steps[1].Status)
	assert.Nil(t, got.Steps[1].ActedAt)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].ServedQuantity.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, got.Items[0].UnitPrice.Valid)
	assert.True(t, got.DatePrepared.Equal(req.DatePrepared))

	byLegacy, err := repo.GetByLegacyID(ctx, 1, entity.SourceSystemLegacyMRS, "MRS-1")
	require.NoError(t, err)
	require.NotNil(t, byLegacy)
	assert.Equal(t, req.ID, byLegacy.ID)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRequestRepository_ExistingLegacyIDsAndNumbers(t *testing.T) {
	db := testutil.NewDB(t)
	dir := testutil.NewDirectory(t, db)
	empID, userID, deptID := seedRequester(t, dir)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRequest(1, empID, userID, deptID, "A", "N-1")))
	require.NoError(t, repo.Create(ctx, newRequest(1, empID, userID, deptID, "B", "N-2")))

	existing, err := repo.ExistingLegacyIDs(ctx, 1, entity.SourceSystemLegacyMRS, []string{"A", "C", "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, existing)

	other, err := repo.ExistingLegacyIDs(ctx, 2, entity.SourceSystemLegacyMRS, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, other)

	exists, err := repo.RequestNumberExists(ctx, 1, "N-1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.RequestNumberExists(ctx, 1, "N-3")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := repo.CountByCompany(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRequestRepository_DuplicateLegacyIDRejected(t *testing.T) {
	db := testutil.NewDB(t)
	dir := testutil.NewDirectory(t, db)
	empID, userID, deptID := seedRequester(t, dir)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRequest(1, empID, userID, deptID, "A", "N-1")))
	err := repo.Create(ctx, newRequest(1, empID, userID, deptID, "A", "N-2"))
	assert.Error(t, err)
}

func TestRequestRepository_TransactionRollback(t *testing.T) {
	db := testutil.NewDB(t)
	dir := testutil.NewDirectory(t, db)
	empID, userID, deptID := seedRequester(t, dir)
	repo := NewRequestRepository(db, zap.NewNop())
	txManager := sqlite.NewDB(db, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("boom")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req := newRequest(1, empID, userID, deptID, "A", "N-1")
		require.NoError(t, repo.Create(txCtx, req))
		require.NoError(t, repo.CreatePostingRecord(txCtx, &entity.PostingRecord{
			RequestID: req.ID, Reference: "PO-1", PostedBy: userID, PostedAt: time.Now(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 0, dir.Count("material_requests"))
	assert.Equal(t, 0, dir.Count("approval_steps"))
	assert.Equal(t, 0, dir.Count("request_items"))
	assert.Equal(t, 0, dir.Count("posting_records"))
}

func TestRequestRepository_ServeBatch(t *testing.T) {
	db := testutil.NewDB(t)
	dir := testutil.NewDirectory(t, db)
	empID, userID, deptID := seedRequester(t, dir)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	req := newRequest(1, empID, userID, deptID, "A", "N-1")
	require.NoError(t, repo.Create(ctx, req))

	batch := &entity.ServeBatch{
		RequestID: req.ID,
		BatchNo:   "batch-1",
		ServedBy:  userID,
		ServedAt:  time.Now(),
		Items: []*entity.ServeBatchItem{
			{RequestItemID: req.Items[0].ID, ServedQuantity: req.Items[0].ServedQuantity},
		},
	}
	require.NoError(t, repo.CreateServeBatch(ctx, batch))
	assert.NotZero(t, batch.ID)
	assert.Equal(t, batch.ID, batch.Items[0].ServeBatchID)
	assert.Equal(t, 1, dir.Count("serve_batch_items"))
}

func TestRequestRepository_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO material_requests").
		WillReturnError(errors.New("disk I/O error"))

	repo := NewRequestRepository(db, zap.NewNop())
	err = repo.Create(context.Background(), newRequest(1, 1, 1, 1, "A", "N-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert request")
	assert.NoError(t, mock.ExpectationsWereMet())
}
