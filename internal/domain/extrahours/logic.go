package extrahours

import (
	"math"
	"time"
)

// Available is granted hours plus compensatory days at HoursPerDay, less
// hours of approved usage requests.
func Available(t Totals) float64 {
	return round2(t.GrantedHours + t.CompensatoryDays*HoursPerDay - t.ApprovedUsedHours)
}

func summarize(employeeID string, t Totals) Summary {
	return Summary{
		EmployeeID:        employeeID,
		GrantedHours:      round2(t.GrantedHours),
		CompensatoryHours: round2(t.CompensatoryDays * HoursPerDay),
		UsedHours:         round2(t.ApprovedUsedHours),
		PendingHours:      round2(t.PendingHours),
		AvailableHours:    Available(t),
	}
}

// validateUsage checks a usage request against today and the balance.
func validateUsage(hours float64, date, today time.Time, available float64) error {
	if hours <= 0 {
		return ErrInvalidHours
	}
	tomorrow := time.Date(today.Year(), today.Month(), today.Day()+1, 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(tomorrow) {
		return ErrDateTooSoon
	}
	if hours > available {
		return ErrInsufficientBalance
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
