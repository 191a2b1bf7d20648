package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"José  Peña", "jose pena"},
		{"  DELA CRUZ, Juan-Carlos ", "dela cruz juan carlos"},
		{"O'Neil", "o neil"},
		{"", ""},
		{"Ñino Müller", "nino muller"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), tt.in)
	}
}

func TestNormalizeEmployeeNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{" 00123 ", "123"},
		{"emp-0042", "EMP0042"},
		{"12 34", "1234"},
		{"000", "0"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmployeeNumber(tt.in), tt.in)
	}
}

func TestRequesterResolver(t *testing.T) {
	dept := int64(9)
	r := NewRequesterResolver([]*entity.EmployeeWithAccount{
		{Employee: entity.Employee{ID: 1, EmployeeNumber: "00100", DepartmentID: &dept}, AccountID: int64Ptr(11)},
		{Employee: entity.Employee{ID: 2, EmployeeNumber: "200"}, AccountID: int64Ptr(12)},
		{Employee: entity.Employee{ID: 3, EmployeeNumber: "200"}, AccountID: int64Ptr(13)},
		{Employee: entity.Employee{ID: 4, EmployeeNumber: "300"}},
		{Employee: entity.Employee{ID: 1, EmployeeNumber: "00100"}, AccountID: int64Ptr(11)},
	})

	m, reason := r.Resolve("100")
	require.Empty(t, reason)
	assert.Equal(t, int64(1), m.EmployeeID)
	assert.Equal(t, int64(11), m.UserID)
	assert.Equal(t, &dept, m.DepartmentID)

	_, reason = r.Resolve("  ")
	assert.Equal(t, ReasonRequesterEmployeeNumberMissing, reason)
	_, reason = r.Resolve("999")
	assert.Equal(t, ReasonRequesterNotFound, reason)
	_, reason = r.Resolve("0200")
	assert.Equal(t, ReasonAmbiguousRequester, reason)
	_, reason = r.Resolve("300")
	assert.Equal(t, ReasonRequesterHasNoLinkedUser, reason)
}

func approverAccount(accountID int64, number, first, last string) *entity.WorkflowAccount {
	return &entity.WorkflowAccount{
		Account:  entity.Account{ID: accountID, Active: true, WorkflowAccess: true},
		Employee: &entity.Employee{ID: accountID * 10, EmployeeNumber: number, FirstName: first, LastName: last},
	}
}

func TestApproverResolver(t *testing.T) {
	r := NewApproverResolver([]*entity.WorkflowAccount{
		approverAccount(1, "A-1", "Juan Carlos", "Dela Cruz"),
		approverAccount(2, "A-2", "María", "Santos"),
		approverAccount(3, "A-3", "Maria", "Santos"),
		approverAccount(4, "B-1", "Pedro", "Reyes"),
		approverAccount(5, "B-1", "Paolo", "Reyes"),
		approverAccount(6, "C-1", "Liza", "Go"),
		{Account: entity.Account{ID: 7}},
	})

	tests := []struct {
		name     string
		number   string
		fullName string
		wantID   int64
		outcome  string
	}{
		{name: "number", number: "a1", wantID: 1},
		{name: "number wins over name", number: "C-1", fullName: "Juan Carlos Dela Cruz", wantID: 6},
		{name: "ambiguous number", number: "B-1", fullName: "Pedro Reyes", outcome: ApproverAmbiguousEmployeeNumber},
		{name: "unknown number falls back to name", number: "Z-9", fullName: "Liza Go", wantID: 6},
		{name: "unknown number without name", number: "Z-9", outcome: ApproverNotFound},
		{name: "split points", fullName: "Juan Carlos Dela Cruz", wantID: 1},
		{name: "comma form", fullName: "Dela Cruz, Juan Carlos", wantID: 1},
		{name: "comma form first token", fullName: "Dela Cruz, Juan", wantID: 1},
		{name: "initials dropped", fullName: "Liza M. Go", wantID: 6},
		{name: "accent folded ambiguity", fullName: "Maria Santos", outcome: ApproverAmbiguousName},
		{name: "not found", fullName: "Nobody Here", outcome: ApproverNotFound},
		{name: "no identity", outcome: ApproverIdentityMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, outcome := r.Resolve(tt.number, tt.fullName)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDepartmentResolver(t *testing.T) {
	r := NewDepartmentResolver([]*entity.Department{
		{ID: 1, Code: "ENG", Name: "Engineering"},
		{ID: 2, Code: "FIN", Name: "Finance"},
		{ID: 3, Code: "OPS-A", Name: "Operations"},
		{ID: 4, Code: "OPS-B", Name: "Operations"},
		{ID: 5, Code: "HR", Name: "Human Resources"},
		{ID: 6, Code: "HR", Name: "People"},
	})

	tests := []struct {
		name       string
		code, dept string
		wantID     int64
		reason     string
	}{
		{name: "code", code: "eng", wantID: 1},
		{name: "code beats name", code: "FIN", dept: "Engineering", wantID: 2},
		{name: "ambiguous code", code: "HR", reason: ReasonAmbiguousDepartmentCode},
		{name: "name", dept: "finance", wantID: 2},
		{name: "unknown code falls back to name", code: "XXX", dept: "Engineering", wantID: 1},
		{name: "ambiguous name", dept: "Operations", reason: ReasonAmbiguousDepartmentName},
		{name: "code in name column", dept: "ops a", wantID: 3},
		{name: "not found", dept: "Marketing", reason: ReasonDepartmentNotFound},
		{name: "no hints", reason: ReasonDepartmentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, reason := r.Resolve(tt.code, tt.dept)
			assert.Equal(t, tt.reason, reason)
			if tt.wantID == 0 {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}

	d, reason := r.ResolveByID(2)
	require.Empty(t, reason)
	assert.Equal(t, "FIN", d.Code)

	_, reason = r.ResolveByID(99)
	assert.Equal(t, ReasonDepartmentOverrideNotFound, reason)
}

func TestDepartmentResolver_Suggest(t *testing.T) {
	r := NewDepartmentResolver([]*entity.Department{
		{ID: 1, Code: "ENG", Name: "Engineering"},
		{ID: 2, Code: "FIN", Name: "Finance"},
		{ID: 3, Code: "MKT", Name: "Marketing"},
	})

	assert.Equal(t, []string{"ENG - Engineering"}, r.Suggest("", "Enginering"))
	assert.Equal(t, []string{"FIN - Finance", "ENG - Engineering"}, r.Suggest("FN", ""))
	assert.Empty(t, r.Suggest("", "Completely Different"))
	assert.Nil(t, r.Suggest("", ""))
}
