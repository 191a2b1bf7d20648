package reconcile

import (
	"context"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

type mockFetcher struct {
	rows  []map[string]any
	err   error
	calls int
	last  port.LegacyFetchRequest
}

func (m *mockFetcher) FetchRows(ctx context.Context, req port.LegacyFetchRequest) ([]map[string]any, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type mockRequestRepo struct {
	existingLegacyIDsFunc   func(ctx context.Context, companyID int64, sourceSystem string, ids []string) (map[string]bool, error)
	requestNumberExistsFunc func(ctx context.Context, companyID int64, number string) (bool, error)
	createFunc              func(ctx context.Context, req *entity.MaterialRequest) error
	created                 []*entity.MaterialRequest
	batches                 []*entity.ServeBatch
	postings                []*entity.PostingRecord
}

func (m *mockRequestRepo) ExistingLegacyIDs(ctx context.Context, companyID int64, sourceSystem string, ids []string) (map[string]bool, error) {
	if m.existingLegacyIDsFunc != nil {
		return m.existingLegacyIDsFunc(ctx, companyID, sourceSystem, ids)
	}
	return map[string]bool{}, nil
}

func (m *mockRequestRepo) RequestNumberExists(ctx context.Context, companyID int64, number string) (bool, error) {
	if m.requestNumberExistsFunc != nil {
		return m.requestNumberExistsFunc(ctx, companyID, number)
	}
	return false, nil
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.MaterialRequest) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, req); err != nil {
			return err
		}
	}
	req.ID = int64(len(m.created) + 1)
	for i, item := range req.Items {
		item.ID = int64(100*req.ID) + int64(i)
		item.RequestID = req.ID
	}
	m.created = append(m.created, req)
	return nil
}

func (m *mockRequestRepo) CreateServeBatch(ctx context.Context, batch *entity.ServeBatch) error {
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockRequestRepo) CreatePostingRecord(ctx context.Context, record *entity.PostingRecord) error {
	m.postings = append(m.postings, record)
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.MaterialRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) GetByLegacyID(ctx context.Context, companyID int64, sourceSystem, legacyID string) (*entity.MaterialRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) CountByCompany(ctx context.Context, companyID int64) (int, error) {
	return len(m.created), nil
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockDirectory struct {
	requesters  []*entity.EmployeeWithAccount
	accounts    []*entity.WorkflowAccount
	departments []*entity.Department
	err         error
}

func (m *mockDirectory) ListRequesterCandidates(ctx context.Context, companyID int64) ([]*entity.EmployeeWithAccount, error) {
	return m.requesters, m.err
}

func (m *mockDirectory) ListWorkflowAccounts(ctx context.Context, companyID int64) ([]*entity.WorkflowAccount, error) {
	return m.accounts, nil
}

func (m *mockDirectory) ListActiveDepartments(ctx context.Context, companyID int64) ([]*entity.Department, error) {
	return m.departments, nil
}
