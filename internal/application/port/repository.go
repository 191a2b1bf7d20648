package port

import (
	"context"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

// RequestRepository defines persistence operations for imported MaterialRequests
// and everything created alongside them
type RequestRepository interface {
	// ExistingLegacyIDs returns the subset of legacyIDs already imported for the company
	ExistingLegacyIDs(ctx context.Context, companyID int64, sourceSystem string, legacyIDs []string) (map[string]bool, error)

	// RequestNumberExists reports whether the request number is taken within the company
	RequestNumberExists(ctx context.Context, companyID int64, requestNumber string) (bool, error)

	// Create inserts the request together with its Steps and Items, setting their IDs
	Create(ctx context.Context, request *entity.MaterialRequest) error

	// CreateServeBatch inserts a serve batch and its items
	CreateServeBatch(ctx context.Context, batch *entity.ServeBatch) error

	// CreatePostingRecord inserts a posting record
	CreatePostingRecord(ctx context.Context, record *entity.PostingRecord) error

	// GetByID retrieves a request with its steps and items
	GetByID(ctx context.Context, id int64) (*entity.MaterialRequest, error)

	// GetByLegacyID retrieves a request by its provenance key
	GetByLegacyID(ctx context.Context, companyID int64, sourceSystem, legacyID string) (*entity.MaterialRequest, error)

	// CountByCompany returns the number of requests stored for a company
	CountByCompany(ctx context.Context, companyID int64) (int, error)
}

// DirectoryRepository defines read operations on the canonical directory
type DirectoryRepository interface {
	// ListRequesterCandidates returns employees of the company plus employees whose
	// linked account holds an active grant to it, each with its active linked account
	ListRequesterCandidates(ctx context.Context, companyID int64) ([]*entity.EmployeeWithAccount, error)

	// ListWorkflowAccounts returns active accounts with workflow access in company scope
	ListWorkflowAccounts(ctx context.Context, companyID int64) ([]*entity.WorkflowAccount, error)

	// ListActiveDepartments returns active departments of the company
	ListActiveDepartments(ctx context.Context, companyID int64) ([]*entity.Department, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
