package attendance

const (
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
)

// DefaultMonthlyTarget is the monthly hours regularization fills up to.
const DefaultMonthlyTarget = 160.0

const regularizedNote = "auto-regularized"
