package extrahours

// HoursPerDay converts compensatory days into hours of balance.
const HoursPerDay = 8

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)
