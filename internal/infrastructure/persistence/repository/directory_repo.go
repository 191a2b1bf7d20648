package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/persistence/sqlite"
)

// DirectoryRepository implements port.DirectoryRepository
type DirectoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sql.DB, logger *zap.Logger) port.DirectoryRepository {
	return &DirectoryRepository{
		db:     db,
		logger: logger,
	}
}

// ListRequesterCandidates returns employees of the company plus employees whose
// linked account holds an active grant to it, regardless of the employee's active flag
func (r *DirectoryRepository) ListRequesterCandidates(ctx context.Context, companyID int64) ([]*entity.EmployeeWithAccount, error) {
	query := `
		SELECT e.id, e.company_id, e.employee_number, e.first_name, e.last_name,
			e.department_id, e.active,
			(SELECT a.id FROM accounts a
			 WHERE a.employee_id = e.id AND a.active = 1
			 ORDER BY a.id LIMIT 1) AS account_id
		FROM employees e
		WHERE e.company_id = ?
		OR EXISTS (
			SELECT 1 FROM accounts a
			JOIN account_company_access g ON g.account_id = a.id
			WHERE a.employee_id = e.id AND g.company_id = ? AND g.active = 1
		)
		ORDER BY e.id
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, companyID, companyID)
	if err != nil {
		r.logger.Error("Failed to list requester candidates", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requester candidates: %w", err)
	}
	defer rows.Close()

	var out []*entity.EmployeeWithAccount
	for rows.Next() {
		var (
			c         entity.EmployeeWithAccount
			deptID    sql.NullInt64
			accountID sql.NullInt64
		)
		if err := rows.Scan(
			&c.Employee.ID, &c.Employee.CompanyID, &c.Employee.EmployeeNumber,
			&c.Employee.FirstName, &c.Employee.LastName, &deptID, &c.Employee.Active,
			&accountID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan requester candidate: %w", err)
		}
		c.Employee.DepartmentID = int64FromNull(deptID)
		c.AccountID = int64FromNull(accountID)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListWorkflowAccounts returns active accounts with workflow access, in company scope
// directly or through an active grant
func (r *DirectoryRepository) ListWorkflowAccounts(ctx context.Context, companyID int64) ([]*entity.WorkflowAccount, error) {
	query := `
		SELECT a.id, a.company_id, a.employee_id, a.username, a.active, a.workflow_access,
			e.id, e.company_id, e.employee_number, e.first_name, e.last_name,
			e.department_id, e.active
		FROM accounts a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.active = 1 AND a.workflow_access = 1
		AND (
			a.company_id = ?
			OR EXISTS (
				SELECT 1 FROM account_company_access g
				WHERE g.account_id = a.id AND g.company_id = ? AND g.active = 1
			)
		)
		ORDER BY a.id
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, companyID, companyID)
	if err != nil {
		r.logger.Error("Failed to list workflow accounts", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow accounts: %w", err)
	}
	defer rows.Close()

	var out []*entity.WorkflowAccount
	for rows.Next() {
		var (
			wa                           entity.WorkflowAccount
			accountEmployeeID            sql.NullInt64
			empID, empCompany, empDept   sql.NullInt64
			empNumber, empFirst, empLast sql.NullString
			empActive                    sql.NullBool
		)
		if err := rows.Scan(
			&wa.Account.ID, &wa.Account.CompanyID, &accountEmployeeID, &wa.Account.Username,
			&wa.Account.Active, &wa.Account.WorkflowAccess,
			&empID, &empCompany, &empNumber, &empFirst, &empLast, &empDept, &empActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workflow account: %w", err)
		}
		wa.Account.EmployeeID = int64FromNull(accountEmployeeID)
		if empID.Valid {
			wa.Employee = &entity.Employee{
				ID:             empID.Int64,
				CompanyID:      empCompany.Int64,
				EmployeeNumber: empNumber.String,
				FirstName:      empFirst.String,
				LastName:       empLast.String,
				DepartmentID:   int64FromNull(empDept),
				Active:         empActive.Bool,
			}
		}
		out = append(out, &wa)
	}
	return out, rows.Err()
}

// ListActiveDepartments returns active departments of the company
func (r *DirectoryRepository) ListActiveDepartments(ctx context.Context, companyID int64) ([]*entity.Department, error) {
	rows, err := r.executor(ctx).QueryContext(ctx, `
		SELECT id, company_id, code, name, active
		FROM departments
		WHERE company_id = ? AND active = 1
		ORDER BY id
	`, companyID)
	if err != nil {
		r.logger.Error("Failed to list departments", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var out []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Code, &d.Name, &d.Active); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *DirectoryRepository) executor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.DirectoryRepository = (*DirectoryRepository)(nil)
