package vacation

import (
	"strings"
	"time"
)

// PeriodYear returns the vacation year containing t. A period runs from
// March 1 of its year through the end of February of the next.
func PeriodYear(t time.Time) int {
	if t.Month() >= PeriodStartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// PeriodBounds returns the first and last calendar day of period year.
func PeriodBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, PeriodStartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, PeriodStartMonth, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// AllowedPeriodYears lists the periods a request may target at now. In
// January and February the period opening next March is allowed as well.
func AllowedPeriodYears(now time.Time) []int {
	current := PeriodYear(now)
	if now.Month() < PeriodStartMonth {
		return []int{current, current + 1}
	}
	return []int{current}
}

func periodAllowed(now, start time.Time) bool {
	target := PeriodYear(start)
	for _, year := range AllowedPeriodYears(now) {
		if year == target {
			return true
		}
	}
	return false
}

// TotalDays is the inclusive calendar-day count of [start, end].
func TotalDays(start, end time.Time) (int, error) {
	days := dayNumber(end) - dayNumber(start) + 1
	if days < 1 {
		return 0, ErrInvalidRange
	}
	return days, nil
}

// Overlaps reports whether two inclusive date ranges share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return dayNumber(aStart) <= dayNumber(bEnd) && dayNumber(aEnd) >= dayNumber(bStart)
}

func annotateExceeds(reason string) string {
	reason = strings.TrimSpace(reason)
	if strings.HasPrefix(reason, ExceedsMarker) {
		return reason
	}
	if reason == "" {
		return ExceedsMarker
	}
	return ExceedsMarker + " " + reason
}

// ExceedsAvailable reports whether reason carries the over-balance marker.
func ExceedsAvailable(reason string) bool {
	return strings.HasPrefix(reason, ExceedsMarker)
}

func dayNumber(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Unix() / 86400)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
