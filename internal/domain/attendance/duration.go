package attendance

import (
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^(?:(\d+) days? )?(\d+):(\d{2}):(\d{2})`)

// ParseDurationHours converts a Postgres interval rendered as HH:MM:SS,
// optionally prefixed with "N day(s)", into decimal hours. Anything else
// parses as 0.
func ParseDurationHours(value string) float64 {
	m := durationPattern.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	days := 0
	if m[1] != "" {
		days, _ = strconv.Atoi(m[1])
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.Atoi(m[4])
	return float64(days*24+hours) + float64(minutes)/60 + float64(seconds)/3600
}
