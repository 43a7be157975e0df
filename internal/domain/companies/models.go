package companies

import "time"

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"taxId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CompanyInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	TaxID string `json:"taxId" validate:"max=64"`
}

type Stats struct {
	CompanyID       string `json:"companyId"`
	Employees       int    `json:"employees"`
	ActiveEmployees int    `json:"activeEmployees"`
	Admins          int    `json:"admins"`
	PendingRequests int    `json:"pendingRequests"`
}

// MigrationResult is returned by MigrateLegacyData. Details maps each table
// to the number of rows adopted; failed tables appear with 0 and in Errors.
type MigrationResult struct {
	Success      bool              `json:"success"`
	TotalUpdated int64             `json:"totalUpdated"`
	Details      map[string]int64  `json:"details"`
	Errors       map[string]string `json:"errors,omitempty"`
}
