package vacation

import "time"

type Request struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	EmployeeName  string     `json:"employeeName,omitempty"`
	EmployeeEmail string     `json:"employeeEmail,omitempty"`
	CompanyID     string     `json:"companyId,omitempty"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	TotalDays     int        `json:"totalDays"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	AdminComments string     `json:"adminComments"`
	ApprovedBy    string     `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type Balance struct {
	EmployeeID    string    `json:"employeeId"`
	CompanyID     string    `json:"companyId,omitempty"`
	Year          int       `json:"year"`
	TotalDays     int       `json:"totalDays"`
	UsedDays      int       `json:"usedDays"`
	RemainingDays int       `json:"remainingDays"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

type CreateInput struct {
	EmployeeID string
	CompanyID  string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Decision is an approve or reject of a pending request together with the
// balance period it settles.
type Decision struct {
	RequestID   string
	Status      string
	ApproverID  string
	Comments    string
	EmployeeID  string
	CompanyID   string
	Year        int
	PeriodStart time.Time
	PeriodEnd   time.Time
	DefaultDays int
}

// Warning is attached to a created request that asks for more days than
// the balance of its period has left.
type Warning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type CreateResult struct {
	Request Request  `json:"request"`
	Warning *Warning `json:"warning,omitempty"`
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
