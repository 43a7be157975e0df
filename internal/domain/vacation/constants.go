package vacation

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	// ExceedsMarker prefixes the reason of a request created over balance.
	ExceedsMarker      = "[EXCEEDS_AVAILABLE_DAYS]"
	WarningExceedsDays = "exceeds_available_days"
)

// PeriodStartMonth is the first month of a vacation period.
const PeriodStartMonth = time.March
