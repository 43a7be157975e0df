package employees

import "time"

type Employee struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"companyId,omitempty"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Department   string     `json:"department"`
	EmployeeCode string     `json:"employeeCode"`
	HireDate     *time.Time `json:"hireDate,omitempty"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type ListFilter struct {
	CompanyID string
	Active    *bool
	Search    string
	Limit     int
	Offset    int
}

type UpdateInput struct {
	FullName     string
	Department   string
	EmployeeCode string
	HireDate     *time.Time
	Role         string
}

type CreateInput struct {
	FullName     string
	Email        string
	Role         string
	Department   string
	EmployeeCode string
	Password     string
	CompanyID    string
}

// DeletionReport lists rows removed per dependent table and the tables that
// failed. IdentityDeleted is false whenever Errors is non-empty.
type DeletionReport struct {
	EmployeeID       string            `json:"employeeId"`
	Deleted          map[string]int64  `json:"deleted"`
	Errors           map[string]string `json:"errors,omitempty"`
	IdentityDeleted  bool              `json:"identityDeleted"`
	DocumentsRemoved int               `json:"documentsRemoved"`
}
