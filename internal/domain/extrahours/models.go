package extrahours

import "time"

type Grant struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	CompanyID    string    `json:"companyId,omitempty"`
	Date         time.Time `json:"date"`
	Hours        float64   `json:"hours"`
	Reason       string    `json:"reason"`
	GrantedBy    string    `json:"grantedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CompensatoryDay struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	CompanyID  string    `json:"companyId,omitempty"`
	Date       time.Time `json:"date"`
	DaysCount  float64   `json:"daysCount"`
	Reason     string    `json:"reason"`
	GrantedBy  string    `json:"grantedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type UsageRequest struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employeeId"`
	EmployeeName   string     `json:"employeeName,omitempty"`
	CompanyID      string     `json:"companyId,omitempty"`
	RequestedDate  time.Time  `json:"requestedDate"`
	HoursRequested float64    `json:"hoursRequested"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	AdminComments  string     `json:"adminComments"`
	ApprovedBy     string     `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Totals are the raw ledger sums for one employee.
type Totals struct {
	GrantedHours      float64 `json:"grantedHours"`
	CompensatoryDays  float64 `json:"compensatoryDays"`
	ApprovedUsedHours float64 `json:"approvedUsedHours"`
	PendingHours      float64 `json:"pendingHours"`
}

type Summary struct {
	EmployeeID        string  `json:"employeeId"`
	GrantedHours      float64 `json:"grantedHours"`
	CompensatoryHours float64 `json:"compensatoryHours"`
	UsedHours         float64 `json:"usedHours"`
	PendingHours      float64 `json:"pendingHours"`
	AvailableHours    float64 `json:"availableHours"`
}

type GrantInput struct {
	EmployeeID string
	CompanyID  string
	GrantedBy  string
	Date       time.Time
	Hours      float64
	Reason     string
}

type CompensatoryInput struct {
	EmployeeID string
	CompanyID  string
	GrantedBy  string
	Date       time.Time
	Days       float64
	Reason     string
}

type UsageInput struct {
	EmployeeID string
	CompanyID  string
	Date       time.Time
	Hours      float64
	Reason     string
}

type ListFilter struct {
	CompanyID  string
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}
