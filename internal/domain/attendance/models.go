package attendance

import "time"

type Entry struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	EmployeeName  string     `json:"employeeName,omitempty"`
	EmployeeEmail string     `json:"employeeEmail,omitempty"`
	CompanyID     string     `json:"companyId,omitempty"`
	Date          time.Time  `json:"date"`
	CheckIn       time.Time  `json:"checkIn"`
	CheckOut      *time.Time `json:"checkOut,omitempty"`
	CheckInLat    *float64   `json:"checkInLat,omitempty"`
	CheckInLng    *float64   `json:"checkInLng,omitempty"`
	CheckOutLat   *float64   `json:"checkOutLat,omitempty"`
	CheckOutLng   *float64   `json:"checkOutLng,omitempty"`
	TotalDuration string     `json:"totalDuration,omitempty"`
	TotalHours    float64    `json:"totalHours"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PunchInput struct {
	EmployeeID  string
	CompanyID   string
	Coordinates *Coordinates
	Notes       string
}

type AdminUpdateInput struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Notes    *string
}

type ListFilter struct {
	CompanyID  string
	EmployeeID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type MonthSummary struct {
	EmployeeID     string    `json:"employeeId"`
	Month          time.Time `json:"month"`
	WorkedHours    float64   `json:"workedHours"`
	TargetHours    float64   `json:"targetHours"`
	RemainingHours float64   `json:"remainingHours"`
	DaysWorked     int       `json:"daysWorked"`
	OpenEntry      bool      `json:"openEntry"`
}

// PlannedEntry is one synthesized attendance row for a single day. When
// several slots land on the same day they merge into one contiguous row that
// starts at the earliest slot and lasts for their summed hours. With the
// default template a full weekday therefore reads 09:00-17:00 for 8 hours
// rather than the 09:00-14:00 and 17:00-20:00 windows it was built from.
type PlannedEntry struct {
	Date     time.Time `json:"date"`
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
	Hours    float64   `json:"hours"`
}

type Plan struct {
	Entries        []PlannedEntry `json:"entries"`
	WorkedHours    float64        `json:"workedHours"`
	HoursAdded     float64        `json:"hoursAdded"`
	RemainingHours float64        `json:"remainingHours"`
}

type RegularizationResult struct {
	EmployeeID     string         `json:"employeeId"`
	EntriesCreated int64          `json:"entriesCreated"`
	HoursAdded     float64        `json:"hoursAdded"`
	WorkedBefore   float64        `json:"workedBefore"`
	RemainingAfter float64        `json:"remainingAfter"`
	Entries        []PlannedEntry `json:"entries"`
}
