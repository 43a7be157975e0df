package reports

import "time"

// AdminDashboard holds the counters shown to admins for one company, or for
// all companies when requested by a super admin.
type AdminDashboard struct {
	ActiveEmployees        int `json:"activeEmployees"`
	CheckedInToday         int `json:"checkedInToday"`
	CompletedToday         int `json:"completedToday"`
	PendingVacations       int `json:"pendingVacations"`
	PendingExtraHours      int `json:"pendingExtraHours"`
	PendingScheduleChanges int `json:"pendingScheduleChanges"`
	DraftPayrollRecords    int `json:"draftPayrollRecords"`
}

type EmployeeDashboard struct {
	TodayStatus         string  `json:"todayStatus"`
	MonthHours          float64 `json:"monthHours"`
	VacationRemaining   int     `json:"vacationRemaining"`
	VacationYear        int     `json:"vacationYear"`
	ExtraHoursAvailable float64 `json:"extraHoursAvailable"`
	PendingRequests     int     `json:"pendingRequests"`
	UnreadNotifications int     `json:"unreadNotifications"`
}

type JobRun struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"companyId,omitempty"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}
