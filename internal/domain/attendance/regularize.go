package attendance

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v2"
)

// ShiftSlot is a recurring working window. Days use RRULE weekday codes.
// Lower Priority slots are consumed first.
type ShiftSlot struct {
	Name     string   `yaml:"name" json:"name"`
	Days     []string `yaml:"days" json:"days"`
	Start    string   `yaml:"start" json:"start"`
	End      string   `yaml:"end" json:"end"`
	Priority int      `yaml:"priority" json:"priority"`
}

type ShiftTemplate struct {
	Slots []ShiftSlot `yaml:"slots" json:"slots"`
}

// DefaultShiftTemplate is Monday to Friday 09:00-14:00 and 17:00-20:00,
// Saturday 11:00-14:00 filled last.
func DefaultShiftTemplate() ShiftTemplate {
	weekdays := []string{"MO", "TU", "WE", "TH", "FR"}
	return ShiftTemplate{Slots: []ShiftSlot{
		{Name: "weekday-morning", Days: weekdays, Start: "09:00", End: "14:00", Priority: 0},
		{Name: "weekday-afternoon", Days: weekdays, Start: "17:00", End: "20:00", Priority: 0},
		{Name: "saturday", Days: []string{"SA"}, Start: "11:00", End: "14:00", Priority: 1},
	}}
}

// LoadShiftTemplate reads a YAML template. An empty path yields the default.
func LoadShiftTemplate(path string) (ShiftTemplate, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultShiftTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ShiftTemplate{}, fmt.Errorf("read shift template: %w", err)
	}
	var tpl ShiftTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return ShiftTemplate{}, fmt.Errorf("parse shift template: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return ShiftTemplate{}, err
	}
	return tpl, nil
}

func (t ShiftTemplate) Validate() error {
	if len(t.Slots) == 0 {
		return fmt.Errorf("%w: no slots", ErrInvalidTemplate)
	}
	for _, slot := range t.Slots {
		if len(slot.Days) == 0 {
			return fmt.Errorf("%w: slot %q has no days", ErrInvalidTemplate, slot.Name)
		}
		for _, code := range slot.Days {
			if _, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(code))]; !ok {
				return fmt.Errorf("%w: slot %q has unknown day %q", ErrInvalidTemplate, slot.Name, code)
			}
		}
		start, err := parseClock(slot.Start)
		if err != nil {
			return fmt.Errorf("%w: slot %q start: %v", ErrInvalidTemplate, slot.Name, err)
		}
		end, err := parseClock(slot.End)
		if err != nil {
			return fmt.Errorf("%w: slot %q end: %v", ErrInvalidTemplate, slot.Name, err)
		}
		if end <= start {
			return fmt.Errorf("%w: slot %q ends before it starts", ErrInvalidTemplate, slot.Name)
		}
	}
	return nil
}

type candidate struct {
	start    time.Time
	end      time.Time
	priority int
}

// candidates expands every slot into concrete windows on days in
// [from, through]. Sundays never produce a window.
func (t ShiftTemplate) candidates(from, through time.Time) ([]candidate, error) {
	loc := from.Location()
	var out []candidate
	for _, slot := range t.Slots {
		start, err := parseClock(slot.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(slot.End)
		if err != nil {
			return nil, err
		}

		opt, err := rrule.StrToROption("FREQ=DAILY;BYDAY=" + strings.ToUpper(strings.Join(slot.Days, ",")))
		if err != nil {
			return nil, fmt.Errorf("%w: slot %q: %v", ErrInvalidTemplate, slot.Name, err)
		}
		opt.Dtstart = atClock(from, start)
		rr, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %q: %v", ErrInvalidTemplate, slot.Name, err)
		}
		set := rrule.Set{}
		set.RRule(rr)

		allowed := map[time.Weekday]bool{}
		for _, code := range slot.Days {
			if wd, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
				allowed[wd] = true
			}
		}
		for _, occ := range set.Between(from, through, true) {
			occ = occ.In(loc)
			if occ.Weekday() == time.Sunday || !allowed[occ.Weekday()] {
				continue
			}
			out = append(out, candidate{start: atClock(occ, start), end: atClock(occ, end), priority: slot.Priority})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].start.Before(out[j].start)
	})
	return out, nil
}

// PlanRegularization fills the gap between the hours already worked this
// month and target using template slots on days from the 1st through today
// that have no entry. now carries the business location.
func PlanRegularization(now time.Time, existing []Entry, template ShiftTemplate, target float64) (Plan, error) {
	loc := now.Location()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)

	taken := map[string]bool{}
	worked := 0.0
	for _, e := range existing {
		key := e.Date.Format(dateKey)
		if e.Date.Year() != now.Year() || e.Date.Month() != now.Month() {
			continue
		}
		taken[key] = true
		worked += e.TotalHours
	}

	plan := Plan{WorkedHours: round2(worked)}
	remaining := target - worked
	if remaining <= 0 {
		plan.RemainingHours = 0
		return plan, nil
	}

	slots, err := template.candidates(monthStart, endOfToday)
	if err != nil {
		return Plan{}, err
	}

	byDay := map[string]int{}
	for _, slot := range slots {
		if remaining <= 1e-9 {
			break
		}
		key := slot.start.Format(dateKey)
		if taken[key] {
			continue
		}
		hours := slot.end.Sub(slot.start).Hours()
		if hours > remaining {
			hours = remaining
		}
		remaining -= hours

		idx, ok := byDay[key]
		if !ok {
			day := slot.start
			plan.Entries = append(plan.Entries, PlannedEntry{
				Date:    time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
				CheckIn: slot.start,
			})
			idx = len(plan.Entries) - 1
			byDay[key] = idx
		}
		entry := &plan.Entries[idx]
		if slot.start.Before(entry.CheckIn) {
			entry.CheckIn = slot.start
		}
		entry.Hours += hours
		plan.HoursAdded += hours
	}

	for i := range plan.Entries {
		e := &plan.Entries[i]
		e.CheckOut = e.CheckIn.Add(time.Duration(e.Hours * float64(time.Hour)).Round(time.Second))
		e.Hours = round2(e.Hours)
	}
	sort.SliceStable(plan.Entries, func(i, j int) bool { return plan.Entries[i].Date.Before(plan.Entries[j].Date) })

	plan.HoursAdded = round2(plan.HoursAdded)
	if remaining < 0 {
		remaining = 0
	}
	plan.RemainingHours = round2(remaining)
	return plan, nil
}

const dateKey = "2006-01-02"

var weekdayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

func parseClock(value string) (time.Duration, error) {
	clock, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", value)
	}
	return time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute, nil
}

// atClock places a time-of-day offset on day's calendar date, staying on the
// wall clock across DST changes.
func atClock(day time.Time, offset time.Duration) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, day.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
