package entity

// Employee is a canonical directory person
type Employee struct {
	ID             int64  `json:"id"`
	CompanyID      int64  `json:"company_id"`
	EmployeeNumber string `json:"employee_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	Active         bool   `json:"active"`
}

// FullName returns "First Last"
func (e *Employee) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// Account is a login user, optionally linked to an employee
type Account struct {
	ID             int64  `json:"id"`
	CompanyID      int64  `json:"company_id"`
	EmployeeID     *int64 `json:"employee_id,omitempty"`
	Username       string `json:"username"`
	Active         bool   `json:"active"`
	WorkflowAccess bool   `json:"workflow_access"`
}

// WorkflowAccount is an approver-capable account joined with its employee record
type WorkflowAccount struct {
	Account  Account   `json:"account"`
	Employee *Employee `json:"employee,omitempty"`
}

// EmployeeWithAccount is an employee joined with its active linked account, if any
type EmployeeWithAccount struct {
	Employee  Employee `json:"employee"`
	AccountID *int64   `json:"account_id,omitempty"`
}

// Department is a canonical department
type Department struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}
