package attendance

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanRegularizationTenthOfMonth(t *testing.T) {
	// June 2024 has 30 days and starts on a Saturday.
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	plan, err := PlanRegularization(now, nil, DefaultShiftTemplate(), 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	// Saturdays 1 and 8 (3h), weekdays 3-7 and 10 (8h); Sundays 2 and 9 skipped.
	if len(plan.Entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(plan.Entries))
	}
	if plan.HoursAdded != 54 {
		t.Fatalf("expected 54 hours, got %v", plan.HoursAdded)
	}
	if plan.RemainingHours != 106 {
		t.Fatalf("expected 106 remaining, got %v", plan.RemainingHours)
	}

	first := plan.Entries[0]
	if !first.Date.Equal(day(2024, 6, 1)) || first.CheckIn.Hour() != 11 || first.Hours != 3 {
		t.Fatalf("unexpected saturday entry %+v", first)
	}
	monday := plan.Entries[1]
	if !monday.Date.Equal(day(2024, 6, 3)) {
		t.Fatalf("expected monday the 3rd, got %v", monday.Date)
	}
	if monday.CheckIn.Hour() != 9 || monday.Hours != 8 || monday.CheckOut.Hour() != 17 {
		t.Fatalf("expected merged 09:00-17:00 8h entry, got %+v", monday)
	}
	assertPlanInvariants(t, now, nil, plan, 160)
}

func TestPlanRegularizationFillsOnlyTheGap(t *testing.T) {
	now := time.Date(2024, 6, 28, 18, 0, 0, 0, time.UTC)
	existing := []Entry{
		{Date: day(2024, 6, 4), TotalHours: 75},
		{Date: day(2024, 6, 5), TotalHours: 75},
		{Date: day(2024, 5, 31), TotalHours: 400},
	}

	plan, err := PlanRegularization(now, existing, DefaultShiftTemplate(), 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if plan.WorkedHours != 150 {
		t.Fatalf("previous month must be ignored, worked %v", plan.WorkedHours)
	}
	if plan.HoursAdded != 10 {
		t.Fatalf("expected 10 hours added, got %v", plan.HoursAdded)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", plan.Entries)
	}
	// weekday slots go first, so the 3rd takes 8h and the 6th a partial morning
	if !plan.Entries[0].Date.Equal(day(2024, 6, 3)) || plan.Entries[0].Hours != 8 {
		t.Fatalf("unexpected first entry %+v", plan.Entries[0])
	}
	partial := plan.Entries[1]
	if !partial.Date.Equal(day(2024, 6, 6)) || partial.Hours != 2 {
		t.Fatalf("unexpected partial entry %+v", partial)
	}
	if got := partial.CheckOut.Sub(partial.CheckIn); got != 2*time.Hour {
		t.Fatalf("partial slot should shrink check-out, got %v", got)
	}
	assertPlanInvariants(t, now, existing, plan, 160)
}

func TestPlanRegularizationNoopWhenTargetMet(t *testing.T) {
	now := time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC)
	plan, err := PlanRegularization(now, []Entry{{Date: day(2024, 6, 3), TotalHours: 161}}, DefaultShiftTemplate(), 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(plan.Entries) != 0 || plan.HoursAdded != 0 {
		t.Fatalf("expected no-op, got %+v", plan)
	}
}

func TestPlanRegularizationFullMonthStopsAtTarget(t *testing.T) {
	now := time.Date(2024, 7, 31, 23, 0, 0, 0, time.UTC)
	existing := []Entry{{Date: day(2024, 7, 2), TotalHours: 8}}

	plan, err := PlanRegularization(now, existing, DefaultShiftTemplate(), 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if plan.HoursAdded != 152 || plan.RemainingHours != 0 {
		t.Fatalf("expected to reach target exactly, got %+v", plan)
	}
	for _, e := range plan.Entries {
		if e.Date.Weekday() == time.Saturday {
			t.Fatalf("weekday slots suffice, saturday %v should stay empty", e.Date)
		}
	}
	assertPlanInvariants(t, now, existing, plan, 160)
}

func TestPlanRegularizationUsesTemplateLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// March 31 2024 is the DST change and a Sunday; April 1 is a Monday.
	now := time.Date(2024, 4, 1, 21, 0, 0, 0, loc)
	plan, err := PlanRegularization(now, nil, DefaultShiftTemplate(), 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", plan.Entries)
	}
	if h := plan.Entries[0].CheckIn.Hour(); h != 9 {
		t.Fatalf("expected 09:00 local check-in, got %d", h)
	}
}

func assertPlanInvariants(t *testing.T, now time.Time, existing []Entry, plan Plan, target float64) {
	t.Helper()
	taken := map[string]bool{}
	for _, e := range existing {
		taken[e.Date.Format(dateKey)] = true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for _, e := range plan.Entries {
		key := e.Date.Format(dateKey)
		if e.Date.Weekday() == time.Sunday {
			t.Fatalf("entry on sunday %s", key)
		}
		if taken[key] {
			t.Fatalf("entry on already used date %s", key)
		}
		if seen[key] {
			t.Fatalf("two entries on %s", key)
		}
		seen[key] = true
		if e.Date.After(today) {
			t.Fatalf("entry after today %s", key)
		}
		if !e.CheckOut.After(e.CheckIn) {
			t.Fatalf("entry %s has non-positive duration", key)
		}
	}
	if plan.WorkedHours+plan.HoursAdded > target+1e-9 {
		t.Fatalf("total %v exceeds target %v", plan.WorkedHours+plan.HoursAdded, target)
	}
}

func TestLoadShiftTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shifts.yaml")
	content := `slots:
  - name: early
    days: [MO, WE, FR]
    start: "07:00"
    end: "15:00"
  - name: weekend
    days: [SA]
    start: "10:00"
    end: "12:00"
    priority: 1
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}

	tpl, err := LoadShiftTemplate(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(tpl.Slots) != 2 || tpl.Slots[0].Start != "07:00" || tpl.Slots[1].Priority != 1 {
		t.Fatalf("unexpected template %+v", tpl)
	}

	// June 3-8 2024: Mon, Wed, Fri early shifts (24h) and Saturday 2h.
	plan, err := PlanRegularization(time.Date(2024, 6, 8, 20, 0, 0, 0, time.UTC), []Entry{{Date: day(2024, 6, 1), TotalHours: 0}}, tpl, 160)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if plan.HoursAdded != 26 {
		t.Fatalf("expected 26 hours, got %v", plan.HoursAdded)
	}

	if tpl, err := LoadShiftTemplate(""); err != nil || len(tpl.Slots) != 3 {
		t.Fatalf("empty path should give default template, got %+v %v", tpl, err)
	}
}

func TestShiftTemplateValidate(t *testing.T) {
	bad := []ShiftTemplate{
		{},
		{Slots: []ShiftSlot{{Name: "x", Start: "09:00", End: "10:00"}}},
		{Slots: []ShiftSlot{{Name: "x", Days: []string{"MO"}, Start: "9am", End: "10:00"}}},
		{Slots: []ShiftSlot{{Name: "x", Days: []string{"MO"}, Start: "12:00", End: "10:00"}}},
	}
	for i, tpl := range bad {
		if err := tpl.Validate(); err == nil {
			t.Fatalf("template %d should be invalid", i)
		}
	}
	if err := DefaultShiftTemplate().Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
}

func TestPlanRegularizationMergesWeekdaySlots(t *testing.T) {
	// Monday 2024-06-03 in Madrid, with only that day eligible.
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2024, 6, 3, 21, 0, 0, 0, loc)
	existing := []Entry{
		{Date: day(2024, 6, 1), TotalHours: 0},
	}
	plan, err := PlanRegularization(now, existing, DefaultShiftTemplate(), 8)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("expected a single merged entry, got %+v", plan.Entries)
	}
	e := plan.Entries[0]
	wantIn := time.Date(2024, 6, 3, 9, 0, 0, 0, loc)
	wantOut := time.Date(2024, 6, 3, 17, 0, 0, 0, loc)
	if !e.CheckIn.Equal(wantIn) || !e.CheckOut.Equal(wantOut) || e.Hours != 8 {
		t.Fatalf("expected 09:00-17:00 for 8h, got %s-%s for %vh", e.CheckIn, e.CheckOut, e.Hours)
	}
}
