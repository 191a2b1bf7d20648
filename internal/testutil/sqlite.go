// Package testutil provides a migrated SQLite database and directory seeding for tests
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/migrations"
	"github.com/garyjia/workflow-reconciler/pkg/database"
)

// NewDB opens a migrated SQLite database in a temporary directory
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(migrations.FS))
	return db.DB
}

// Directory inserts canonical directory rows
type Directory struct {
	t  *testing.T
	db *sql.DB
}

// NewDirectory returns a seeder bound to db
func NewDirectory(t *testing.T, db *sql.DB) *Directory {
	return &Directory{t: t, db: db}
}

// Department inserts an active department and returns its id
func (d *Directory) Department(companyID int64, code, name string) int64 {
	d.t.Helper()
	return d.insert(`INSERT INTO departments (company_id, code, name, active) VALUES (?, ?, ?, 1)`,
		companyID, code, name)
}

// InactiveDepartment inserts an inactive department and returns its id
func (d *Directory) InactiveDepartment(companyID int64, code, name string) int64 {
	d.t.Helper()
	return d.insert(`INSERT INTO departments (company_id, code, name, active) VALUES (?, ?, ?, 0)`,
		companyID, code, name)
}

// Employee inserts an active employee and returns its id. departmentID 0 means none.
func (d *Directory) Employee(companyID int64, number, first, last string, departmentID int64) int64 {
	d.t.Helper()
	var dept interface{}
	if departmentID != 0 {
		dept = departmentID
	}
	return d.insert(`
		INSERT INTO employees (company_id, employee_number, first_name, last_name, department_id, active)
		VALUES (?, ?, ?, ?, ?, 1)
	`, companyID, number, first, last, dept)
}

// Account inserts an active account linked to employeeID and returns its id
func (d *Directory) Account(companyID, employeeID int64, username string, workflowAccess bool) int64 {
	d.t.Helper()
	return d.insert(`
		INSERT INTO accounts (company_id, employee_id, username, active, workflow_access)
		VALUES (?, ?, ?, 1, ?)
	`, companyID, employeeID, username, workflowAccess)
}

// Grant gives accountID active access to companyID
func (d *Directory) Grant(accountID, companyID int64) {
	d.t.Helper()
	d.insert(`INSERT INTO account_company_access (account_id, company_id, active) VALUES (?, ?, 1)`,
		accountID, companyID)
}

// Approver inserts an employee with a workflow-capable account and returns the account id
func (d *Directory) Approver(companyID int64, number, first, last string) int64 {
	d.t.Helper()
	empID := d.Employee(companyID, number, first, last, 0)
	return d.Account(companyID, empID, "approver-"+number, true)
}

// Count returns the number of rows in table
func (d *Directory) Count(table string) int {
	d.t.Helper()
	var n int
	require.NoError(d.t, d.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func (d *Directory) insert(query string, args ...interface{}) int64 {
	d.t.Helper()
	res, err := d.db.Exec(query, args...)
	require.NoError(d.t, err)
	id, err := res.LastInsertId()
	require.NoError(d.t, err)
	return id
}
