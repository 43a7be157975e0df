package schedulechanges

import "time"

type Request struct {
	ID                string     `json:"id"`
	EmployeeID        string     `json:"employeeId"`
	EmployeeName      string     `json:"employeeName,omitempty"`
	EmployeeEmail     string     `json:"employeeEmail,omitempty"`
	CompanyID         string     `json:"companyId,omitempty"`
	RequestedDate     time.Time  `json:"requestedDate"`
	CurrentCheckIn    *time.Time `json:"currentCheckIn,omitempty"`
	CurrentCheckOut   *time.Time `json:"currentCheckOut,omitempty"`
	RequestedCheckIn  time.Time  `json:"requestedCheckIn"`
	RequestedCheckOut time.Time  `json:"requestedCheckOut"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	AdminComments     string     `json:"adminComments"`
	ApprovedBy        string     `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type CreateInput struct {
	EmployeeID        string
	CompanyID         string
	RequestedDate     time.Time
	RequestedCheckIn  time.Time
	RequestedCheckOut time.Time
	Reason            string
}

type ListFilter struct {
	CompanyID  string
	EmployeeID string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type Decision struct {
	Request      Request `json:"request"`
	EntryUpdated bool    `json:"entryUpdated"`
}
